package http

import (
	"orcamentos/internal/budget"
	"orcamentos/internal/catalog"
	"orcamentos/internal/core"
	"orcamentos/internal/notify"
	"orcamentos/internal/services"
)

type catalogRow struct {
	core.Service
	Selected bool
	Armed    bool
	Deleting bool
}

type catalogView struct {
	Filter    string
	Rows      []catalogRow
	Shown     int
	Total     int
	Restoring bool
}

type budgetView struct {
	Items  []core.BudgetItem
	Totals core.Totals
}

type noticeView struct {
	Notice notify.Notice
	Show   bool
}

type pageView struct {
	General core.GeneralInfo
	Catalog catalogView
	Budget  budgetView
	Notice  noticeView
	Prompts promptView
}

type promptView struct {
	Restore string
	Clear   string
}

func newCatalogView(m *catalog.Manager) catalogView {
	view := m.View()
	selected, hasSelection := m.Selected()
	rows := make([]catalogRow, len(view))
	for i, svc := range view {
		status := m.Status(svc.ID)
		rows[i] = catalogRow{
			Service:  svc,
			Selected: hasSelection && selected.ID == svc.ID,
			Armed:    status == catalog.StatusArmed,
			Deleting: status == catalog.StatusDeleting,
		}
	}
	return catalogView{
		Filter:    m.Filter(),
		Rows:      rows,
		Shown:     len(view),
		Total:     len(m.Services()),
		Restoring: m.Restoring(),
	}
}

func newBudgetView(svc *services.QuoteService) budgetView {
	q := svc.Snapshot()
	return budgetView{Items: q.Items, Totals: q.Totals}
}

func newNoticeView(n *notify.Notifier) noticeView {
	nt, ok := n.Current()
	return noticeView{Notice: nt, Show: ok}
}

func newPageView(svc *services.QuoteService) pageView {
	return pageView{
		General: svc.General(),
		Catalog: newCatalogView(svc.Catalog()),
		Budget:  newBudgetView(svc),
		Notice:  newNoticeView(svc.Notifier()),
		Prompts: promptView{Restore: catalog.RestorePrompt, Clear: budget.ClearPrompt},
	}
}
