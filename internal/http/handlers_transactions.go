package http

import (
	"context"
	"net/http"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.ledger.CreateCategory(r.Context(), req.category)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	req.category.ID = id
	updated, err := s.ledger.UpdateCategory(r.Context(), req.category)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.ledger.DeleteCategory)
}

// deleteByID parses the id path value and runs del, answering 204.
func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, del func(context.Context, int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := del(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func transactionQuery(r *http.Request) (services.TransactionQuery, error) {
	query := r.URL.Query()
	var q services.TransactionQuery
	var err error
	if q.Year, err = queryInt(query, "year"); err != nil {
		return q, err
	}
	if q.Month, err = queryInt(query, "month"); err != nil {
		return q, err
	}
	// A month without a year selects nothing narrower than all dates.
	if q.Year == 0 {
		q.Month = 0
	}
	q.Kind = core.Kind(query.Get("type"))
	categoryID, err := queryInt(query, "category_id")
	if err != nil {
		return q, err
	}
	q.CategoryID = int64(categoryID)
	return q, nil
}

// handleListTransactions returns a bare array, or a page object when the
// page parameter is present.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := transactionQuery(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	query := r.URL.Query()
	if query.Has("page") {
		page, err := queryInt(query, "page")
		if err != nil {
			writeError(w, r, applog.OpList, err)
			return
		}
		limit, err := queryInt(query, "limit")
		if err != nil {
			writeError(w, r, applog.OpList, err)
			return
		}
		result, err := s.ledger.PageTransactions(r.Context(), q, page, limit)
		if err != nil {
			writeError(w, r, applog.OpList, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	txs, err := s.ledger.ListTransactions(r.Context(), q)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	tx, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.ledger.CreateTransaction(r.Context(), req.transaction)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	req.transaction.ID = id
	updated, err := s.ledger.UpdateTransaction(r.Context(), req.transaction)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.ledger.DeleteTransaction)
}
