package handler

import "github.com/bryan-besnyi/next-doorcard-sub000/internal/service"

// Handler aggregates every module handler.
type Handler struct {
	Auth     *AuthHandler
	Term     *TermHandler
	Doorcard *DoorcardHandler
	Draft    *DraftHandler
	Public   *PublicHandler
	Export   *ExportHandler
}

// NewHandler wires the handlers to their services.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		Term:     NewTermHandler(svc.Term),
		Doorcard: NewDoorcardHandler(svc.Doorcard),
		Draft:    NewDraftHandler(svc.Draft),
		Public:   NewPublicHandler(svc.Doorcard, svc.ICSFeed),
		Export:   NewExportHandler(svc.Export),
	}
}
