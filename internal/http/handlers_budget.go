package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"orcamentos/internal/budget"
	"orcamentos/internal/catalog"
	"orcamentos/internal/core"
	"orcamentos/internal/export"
	"orcamentos/internal/log"
	"orcamentos/internal/notify"
	"orcamentos/internal/services"
)

// budgetResponse re-renders the budget panel with fresh totals.
func (s *Server) budgetResponse(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder) {
	s.respond(w, r, b, "budget_panel", newBudgetView(s.svc))
}

func (s *Server) handleBudgetPanel(w http.ResponseWriter, r *http.Request) {
	s.budgetResponse(w, r, NewHTMXResponse())
}

// handleBudgetAdd adds service_id, or the selected catalog entry when the
// form has none.
func (s *Server) handleBudgetAdd(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	var (
		item core.BudgetItem
		err  error
	)
	if id := formString(r.Form, "service_id"); id != "" {
		item, err = s.svc.AddToBudget(id)
	} else {
		item, err = s.svc.AddSelectedToBudget()
	}
	if errors.Is(err, catalog.ErrServiceNotFound) {
		NotFoundError("Selecione um serviço do catálogo").Write(w)
		return
	}
	if err != nil {
		InternalServerError("Erro ao adicionar o item").Write(w)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget item added",
		log.FieldItemID, item.ID, log.FieldOperation, log.OpCreate)
	s.budgetResponse(w, r, NewHTMXResponse())
}

func (s *Server) handleBudgetUpdate(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := r.PathValue("id")
	_, removed, err := s.svc.Budget().Update(id, ParseBudgetPatch(r.Form))
	switch {
	case errors.Is(err, budget.ErrItemNotFound):
		NotFoundError("Item não encontrado").Write(w)
		return
	case errors.Is(err, core.ErrEmptyName):
		UnprocessableEntityError("Informe o nome do item").Write(w)
		return
	case err != nil:
		InternalServerError("Erro ao atualizar o item").Write(w)
		return
	}
	if removed {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Budget item removed by quantity",
			log.FieldItemID, id, log.FieldOperation, log.OpDelete)
	}
	s.budgetResponse(w, r, NewHTMXResponse())
}

func (s *Server) handleBudgetRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Budget().Remove(r.PathValue("id")); err != nil {
		NotFoundError("Item não encontrado").Write(w)
		return
	}
	s.budgetResponse(w, r, NewHTMXResponse())
}

// handleBudgetClear drops every item. The browser asks first; the form must
// still carry confirm=yes.
func (s *Server) handleBudgetClear(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.svc.Budget().Clear(services.Answer(Confirmed(r.Form))) {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Budget cleared", log.FieldOperation, log.OpDelete)
	}
	s.budgetResponse(w, r, NewHTMXResponse())
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.exportQuote(w, r, "xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteXLSX)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	s.exportQuote(w, r, "pdf", "application/pdf", export.WritePDF)
}

// exportQuote renders the current quote with write. Failures raise an error
// notice and answer 500; nothing is retried.
func (s *Server) exportQuote(w http.ResponseWriter, r *http.Request, format, contentType string, write func(io.Writer, core.Quote) error) {
	q := s.svc.Snapshot()
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentExport)

	var buf bytes.Buffer
	if err := write(&buf, q); err != nil {
		logger.ErrorContext(r.Context(), "Quote export failed",
			log.FieldFormat, format, log.FieldError, err, log.FieldOperation, log.OpExport)
		s.svc.Notifier().Error("Falha ao exportar o orçamento", 0)
		InternalServerError("Falha ao exportar o orçamento").Write(w)
		return
	}

	logger.InfoContext(r.Context(), "Quote exported",
		log.FieldFormat, format, log.FieldBytes, buf.Len(), log.FieldCount, len(q.Items))
	s.svc.Notifier().Success("Orçamento exportado", notify.ShortTTL)
	NewHTMXResponse().
		Attachment(export.FileName(q, format), contentType, buf.Bytes()).
		Write(w)
}
