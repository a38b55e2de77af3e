package http

import (
	"bytes"
	"errors"
	"net/http"

	"orcamentos/internal/catalog"
	"orcamentos/internal/core"
	"orcamentos/internal/csvcodec"
	"orcamentos/internal/log"
	"orcamentos/internal/services"
)

const (
	templateFileName = "modelo-servicos.csv"
	catalogFileName  = "servicos.csv"
)

// catalogResponse re-renders the catalog panel and refreshes the notice.
func (s *Server) catalogResponse(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder) {
	s.respond(w, r, b.TriggerNoticeChanged(), "catalog_panel", newCatalogView(s.svc.Catalog()))
}

func (s *Server) handleCatalogPanel(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query(); q.Has("filter") {
		s.svc.Catalog().SetFilter(sanitizeInput(q.Get("filter")))
	}
	s.respond(w, r, NewHTMXResponse(), "catalog_panel", newCatalogView(s.svc.Catalog()))
}

func (s *Server) handleCatalogSelect(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.svc.Catalog().Select(formString(r.Form, "id")); err != nil {
		NotFoundError("Serviço não encontrado").Write(w)
		return
	}
	s.catalogResponse(w, r, NewHTMXResponse())
}

func (s *Server) handleCatalogAdd(w http.ResponseWriter, r *http.Request) {
	svc := s.svc.Catalog().Add()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Service added",
		log.FieldServiceID, svc.ID, log.FieldOperation, log.OpCreate)
	s.catalogResponse(w, r, NewHTMXResponse())
}

func (s *Server) handleCatalogEdit(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	id := r.PathValue("id")
	current, err := s.svc.Catalog().Get(id)
	if err != nil {
		NotFoundError("Serviço não encontrado").Write(w)
		return
	}

	if _, err := s.svc.Catalog().Edit(ParseServiceForm(r.Form, current)); err != nil {
		switch {
		case errors.Is(err, catalog.ErrServiceNotFound):
			NotFoundError("Serviço não encontrado").Write(w)
		case errors.Is(err, core.ErrEmptyName):
			UnprocessableEntityError("Informe o nome do serviço").Write(w)
		default:
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Service edit failed",
				log.FieldServiceID, id, log.FieldError, err)
			InternalServerError("Erro ao salvar o serviço").Write(w)
		}
		return
	}
	s.catalogResponse(w, r, NewHTMXResponse())
}

// handleCatalogDelete runs one phase of the two-phase delete. The second
// phase blocks for the delete delay before answering.
func (s *Server) handleCatalogDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := s.svc.Catalog().Delete(id)
	if err != nil {
		NotFoundError("Serviço não encontrado").Write(w)
		return
	}
	if res == catalog.DeleteCompleted {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Service deleted",
			log.FieldServiceID, id, log.FieldOperation, log.OpDelete)
	}
	s.catalogResponse(w, r, NewHTMXResponse())
}

func (s *Server) handleCatalogCancelDelete(w http.ResponseWriter, r *http.Request) {
	s.svc.Catalog().CancelDelete(r.PathValue("id"))
	s.catalogResponse(w, r, NewHTMXResponse())
}

func (s *Server) handleCatalogImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		BadRequestError("Arquivo inválido").Write(w)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("Selecione um arquivo CSV ou XLSX").Write(w)
		return
	}
	defer file.Close()

	n, err := s.svc.ImportFile(header.Filename, file)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyImport) {
			UnprocessableEntityError("CSV vazio ou inválido").Write(w)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Catalog import failed", log.FieldError, err)
		InternalServerError("Erro ao importar").Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Catalog imported",
		log.FieldCount, n, log.FieldOperation, log.OpImport)
	s.catalogResponse(w, r, NewHTMXResponse())
}

func (s *Server) handleCatalogAttach(w http.ResponseWriter, r *http.Request) {
	n := s.svc.Catalog().AttachDefaults()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Example services attached", log.FieldCount, n)
	s.catalogResponse(w, r, NewHTMXResponse())
}

// handleCatalogRestore replaces the catalog with the examples. The browser
// asks first; the form must still carry confirm=yes.
func (s *Server) handleCatalogRestore(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	done, err := s.svc.Catalog().RestoreDefaults(services.Answer(Confirmed(r.Form)))
	if errors.Is(err, catalog.ErrRestoreBusy) {
		ConflictError("Restauração em andamento").Write(w)
		return
	}
	if done {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Catalog restored", log.FieldOperation, log.OpRestore)
	}
	s.catalogResponse(w, r, NewHTMXResponse())
}

func (s *Server) handleTemplateCSV(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Attachment(templateFileName, "text/csv; charset=utf-8", []byte(csvcodec.Template())).
		Write(w)
}

// handleTemplateText serves the template as plain text for the copy button.
func (s *Server) handleTemplateText(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Header("Content-Type", "text/plain; charset=utf-8").
		BodyString(csvcodec.Template()).
		Write(w)
}

func (s *Server) handleCatalogExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := csvcodec.EncodeCatalog(&buf, s.svc.Catalog().Services()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Catalog export failed",
			log.FieldError, err, log.FieldOperation, log.OpExport)
		s.svc.Notifier().Error("Falha ao exportar o catálogo", 0)
		InternalServerError("Falha ao exportar o catálogo").Write(w)
		return
	}
	NewHTMXResponse().
		Attachment(catalogFileName, "text/csv; charset=utf-8", buf.Bytes()).
		Write(w)
}
