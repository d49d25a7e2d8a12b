package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"KeeperMigrate/internal/middleware"
	"KeeperMigrate/internal/repo"
	"KeeperMigrate/internal/service"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// VaultHandler отдаёт хранилища, папки, записи, вложения и журнал действий.
type VaultHandler struct {
	VaultService *service.VaultService
	Logger       *zap.SugaredLogger
}

func NewVaultHandler(vaultService *service.VaultService, logger *zap.SugaredLogger) *VaultHandler {
	return &VaultHandler{VaultService: vaultService, Logger: logger}
}

// pageResponse — общий формат списков.
type pageResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

func (h *VaultHandler) Vaults(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountIDFromContext(r.Context())
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, total, err := h.VaultService.Vaults(r.Context(), accountID, p)
	respondPage(h, w, "Vaults", items, total, err)
}

func (h *VaultHandler) Folders(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountIDFromContext(r.Context())
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	vaultID := q.Get("vaultId")
	if vaultID == "" {
		http.Error(w, "missing vaultId", http.StatusBadRequest)
		return
	}
	items, total, err := h.VaultService.Folders(r.Context(), accountID, vaultID, optional(q.Get("parentId")), p)
	respondPage(h, w, "Folders", items, total, err)
}

func (h *VaultHandler) Items(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountIDFromContext(r.Context())
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	vaultID := q.Get("vaultId")
	if vaultID == "" {
		http.Error(w, "missing vaultId", http.StatusBadRequest)
		return
	}
	items, total, err := h.VaultService.Items(r.Context(), accountID, vaultID, optional(q.Get("folderId")), p)
	respondPage(h, w, "Items", items, total, err)
}

func (h *VaultHandler) Item(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountIDFromContext(r.Context())
	item, err := h.VaultService.Item(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *VaultHandler) Attachment(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountIDFromContext(r.Context())
	att, err := h.VaultService.Attachment(r.Context(), accountID, chi.URLParam(r, "id"), chi.URLParam(r, "attachmentID"))
	if err != nil {
		h.fail(w, "Attachment", err)
		return
	}
	writeJSON(w, http.StatusOK, att)
}

func (h *VaultHandler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountIDFromContext(r.Context())
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, total, err := h.VaultService.ActivityLogs(r.Context(), accountID, p)
	respondPage(h, w, "ActivityLogs", items, total, err)
}

func (h *VaultHandler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	h.Logger.Errorw(op+": service error", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func respondPage[T any](h *VaultHandler, w http.ResponseWriter, op string, items []T, total int64, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse[T]{Items: items, Total: total})
}

// parsePage читает limit/offset; при ошибке отвечает 400 и возвращает false.
func parsePage(w http.ResponseWriter, r *http.Request) (repo.Page, bool) {
	p := repo.Page{Limit: defaultLimit}
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return p, false
		}
		p.Limit = min(n, maxLimit)
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid offset", http.StatusBadRequest)
			return p, false
		}
		p.Offset = n
	}
	return p, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
