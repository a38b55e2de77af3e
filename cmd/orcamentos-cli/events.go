package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"orcamentos/internal/amqp"
	appcli "orcamentos/internal/cli"
	"orcamentos/internal/core"
)

const watchDialAttempts = 5

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "eventos de alteração publicados pelo servidor",
		Subcommands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "acompanha as alterações de estado até ser interrompido",
				Action: func(c *cli.Context) error {
					cfg, err := appcli.LoadAndValidateConfig()
					if err != nil {
						return err
					}
					if cfg.AMQPURL == "" {
						return cli.Exit("AMQP_URL não configurada", 1)
					}
					appcli.SetupLogger(c.App.ErrWriter, c.String("log-level"))

					client, err := amqp.Dial(c.Context, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, watchDialAttempts)
					if err != nil {
						return fmt.Errorf("connect to broker: %w", err)
					}
					defer client.Close()

					err = client.ConsumeStateChanged(c.Context, func(msg *amqp.StateChangedMessage) error {
						return printEvent(c.App.Writer, msg)
					})
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				},
			},
		},
	}
}

func printEvent(w io.Writer, msg *amqp.StateChangedMessage) error {
	_, err := fmt.Fprintf(w, "%s  %-8s  %d registro(s)  %s\n",
		msg.Timestamp.Local().Format(time.DateTime), msg.Key, msg.Count, core.FormatBRL(msg.Total))
	return err
}
