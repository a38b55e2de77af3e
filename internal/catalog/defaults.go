package catalog

import (
	"bufio"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"orcamentos/internal/core"
)

// SeedFileName overrides DefaultNames when present in the data directory.
const SeedFileName = "seed_services.txt"

// DefaultNames is the built-in example catalog.
var DefaultNames = []string{
	"Instalar Varal de Teto",
	"Instalar Ventilador de Teto",
	"Trocar Lâmpada",
	"Pintura de Parede",
	"Instalar Tomada",
	"Trocar Interruptor",
	"Instalar Chuveiro Elétrico",
	"Limpeza de Caixa d’Água",
	"Reparo em Encanamento",
	"Desentupimento de Pia",
	"Trocar Torneira",
	"Instalar Misturador",
	"Rejunte de Piso",
	"Troca de Azulejo",
	"Instalação de Box de Vidro",
	"Troca de Fechadura",
	"Instalar Dobradiça",
	"Trocar Puxador",
	"Montagem de Armário",
	"Montagem de Cama",
	"Montagem de Mesa",
	"Instalar Cortina",
	"Instalar Persiana",
	"Trocar Vidro Quebrado",
	"Instalar Espelho",
	"Trocar Registro de Água",
	"Limpeza de Ralo",
	"Troca de Sifão",
	"Instalar Porta",
	"Regular Dobradiça",
	"Troca de Tomada Queimada",
	"Trocar Interruptor Simples",
	"Trocar Interruptor Paralelo",
	"Trocar Spot de Iluminação",
	"Instalar Luminária",
	"Pintura de Teto",
	"Pintura de Porta",
	"Pintura de Janelas",
	"Aplicação de Verniz em Madeira",
	"Impermeabilização de Parede",
	"Conserto de Vazamento",
	"Instalação de Tanque",
	"Instalar Varal de Parede",
	"Troca de Rodapé",
	"Limpeza Pós-Obra",
	"Fixação de Prateleiras",
	"Instalar Suporte de TV",
	"Trocar Ducha Higiênica",
	"Instalar Extintor",
	"Instalar Campainha",
	"Trocar Lâmpada de Emergência",
}

// Generator builds the example catalog.
type Generator struct {
	Names []string
	// Price returns the unit price of a generated entry.
	Price func() float64
}

// NewGenerator uses the names from dataDir/seed_services.txt when the file
// exists and lists at least one name, DefaultNames otherwise.
func NewGenerator(dataDir string) Generator {
	names := DefaultNames
	if dataDir != "" {
		if seeded := readLines(filepath.Join(dataDir, SeedFileName)); len(seeded) > 0 {
			names = seeded
		}
	}
	return Generator{Names: names, Price: RandomPrice}
}

// RandomPrice returns an integer price in [50, 499].
func RandomPrice() float64 {
	return float64(50 + rand.IntN(450))
}

// Generate returns a fresh set of services with new ids.
func (g Generator) Generate() []core.Service {
	names := g.Names
	if len(names) == 0 {
		names = DefaultNames
	}
	price := g.Price
	if price == nil {
		price = RandomPrice
	}
	out := make([]core.Service, 0, len(names))
	for _, name := range names {
		out = append(out, core.Service{
			ID:    uuid.NewString(),
			Name:  name,
			Unit:  core.DefaultUnit,
			Price: price(),
		})
	}
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe keeps the first occurrence of each name, in file order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		k := foldName(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
