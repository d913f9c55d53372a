package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
)

const maxBodyBytes = 1 << 16

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	return decode(w, r, dst, false)
}

// decodeOptionalBody accepts an empty body and leaves dst at its zero value.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) error {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ErrInvalidArgument
	}
	return nil
}

func requireCaller(r *http.Request) (model.AccountID, error) {
	acct, ok := Caller(r.Context())
	if !ok {
		return "", domain.ErrMissingIdentity
	}
	return acct, nil
}

func codeParam(r *http.Request) (model.TicketCode, error) {
	code, err := strconv.ParseUint(chi.URLParam(r, "code"), 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidArgument
	}
	return code, nil
}

func accountParam(r *http.Request) (model.AccountID, error) {
	return model.ParseAccountID(chi.URLParam(r, "account"))
}

func (s *Server) getOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ledger.GetOwner(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.AccountID{"owner": owner})
}

type adminRequest struct {
	AccountID string `json:"account_id"`
}

func (s *Server) addAdmin(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req adminRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	acct, err := model.ParseAccountID(req.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.SetAdminAccount(r.Context(), caller, acct); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.AccountID{"account_id": acct})
}

func (s *Server) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.ledger.ListAdmins(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.AccountID{"admins": admins})
}

type issueRequest struct {
	Count int `json:"count"`
}

func (s *Server) issueTickets(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req issueRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	batch, err := s.ledger.IssueTicket(r.Context(), caller, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string][]*model.Ticket{"tickets": batch})
}

func (s *Server) getTicket(w http.ResponseWriter, r *http.Request) {
	code, err := codeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := s.ledger.GetInfoTicket(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	if t == nil {
		writeError(w, domain.ErrTicketNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type buyRequest struct {
	AttachedDeposit decimal.Decimal `json:"attached_deposit"`
}

func (s *Server) buyTicket(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	code, err := codeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	// no body means no attached deposit
	var req buyRequest
	if err := decodeOptionalBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	receipt, err := s.ledger.BuyTicket(r.Context(), caller, code, req.AttachedDeposit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

type registerRequest struct {
	Email string `json:"email"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.ledger.Register(r.Context(), caller, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	code := http.StatusOK
	if res.Success {
		code = http.StatusCreated
	}
	writeJSON(w, code, res)
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	acct, err := accountParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := s.ledger.GetMember(r.Context(), acct)
	if err != nil {
		writeError(w, err)
		return
	}
	if m == nil {
		writeError(w, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type priceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type priceResponse struct {
	Price decimal.Decimal `json:"price"`
}

func (s *Server) setPrice(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req priceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.SetPriceTicket(r.Context(), caller, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{Price: req.Amount})
}

func (s *Server) getPrice(w http.ResponseWriter, r *http.Request) {
	p, err := s.ledger.GetPrice(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{Price: p})
}

func (s *Server) accountTickets(w http.ResponseWriter, r *http.Request) {
	acct, err := accountParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	codes, err := s.ledger.GetTickets(r.Context(), acct)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AccountID model.AccountID    `json:"account_id"`
		Tickets   []model.TicketCode `json:"tickets"`
	}{acct, codes})
}

func (s *Server) accountPurchases(w http.ResponseWriter, r *http.Request) {
	acct, err := accountParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.ledger.ListPurchases(r.Context(), acct)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]*model.Purchase{"purchases": list})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
