package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/roach88/bazaar/internal/content"
	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/safemath"
	"github.com/roach88/bazaar/internal/wallet"
)

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	op := engine.Op(mux.Vars(r)["op"])
	if !op.Valid() {
		writeError(w, http.StatusNotFound, errorBody{
			Code:    string(engine.ErrCodeInvalidCall),
			Message: fmt.Sprintf("unknown operation %q", op),
		})
		return
	}
	caller := market.Principal(r.Header.Get(PrincipalHeader))
	if caller == market.NoPrincipal {
		writeError(w, http.StatusUnauthorized, errorBody{
			Code:    string(engine.ErrCodeInvalidCall),
			Message: PrincipalHeader + " header is required",
		})
		return
	}

	var req callRequest
	body := http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errorBody{
			Code:    string(engine.ErrCodeInvalidCall),
			Message: fmt.Sprintf("decode body: %v", err),
		})
		return
	}
	value, err := safemath.ParseDecimal(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{
			Code:    string(engine.ErrCodeInvalidCall),
			Message: fmt.Sprintf("value: %v", err),
		})
		return
	}
	if req.Args == nil {
		req.Args = payload.Object{}
	}

	res, err := s.engine.Submit(r.Context(), engine.Call{
		Op:     op,
		Caller: caller,
		Value:  value,
		Args:   req.Args,
	})
	if err != nil {
		status, body := describeError(err)
		body.CallID = res.CallID
		writeError(w, status, body)
		return
	}

	resp := callResponse{CallID: res.CallID, Events: res.Events}
	if op == engine.OpCreateStore || op == engine.OpAddProduct {
		id := res.ID
		resp.ID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarket(w http.ResponseWriter, _ *http.Request) {
	var view marketView
	s.engine.View(func(m *market.Market, b *wallet.Book) {
		custody := b.Balance(wallet.Custody)
		view = marketView{
			Owner:          m.Owner(),
			Open:           m.IsOpen(),
			Administrators: m.Administrators(),
			StoreOwners:    m.StoreOwners(),
			NextStoreID:    m.NextStoreID(),
			Custody:        custody.Dec(),
		}
	})
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStores(w http.ResponseWriter, r *http.Request) {
	owner := market.Principal(r.URL.Query().Get("owner"))
	views := []storeView{}
	s.engine.View(func(m *market.Market, _ *wallet.Book) {
		for _, st := range m.ActiveStores() {
			if owner != market.NoPrincipal && st.Owner != owner {
				continue
			}
			views = append(views, newStoreView(st, true))
		}
	})
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(w, r, "store_id")
	if !ok {
		return
	}
	var view storeView
	s.engine.View(func(m *market.Market, _ *wallet.Book) {
		view = newStoreView(m.Store(storeID), m.StoreActive(storeID))
	})
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(w, r, "store_id")
	if !ok {
		return
	}
	views := []productView{}
	s.engine.View(func(m *market.Market, _ *wallet.Book) {
		for _, p := range m.ActiveProducts(storeID) {
			views = append(views, newProductView(p, true))
		}
	})
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(w, r, "store_id")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	var view productView
	s.engine.View(func(m *market.Market, _ *wallet.Book) {
		view = newProductView(m.Product(storeID, productID), m.ProductActive(storeID, productID))
	})
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	p := market.Principal(mux.Vars(r)["principal"])
	var view walletView
	s.engine.View(func(_ *market.Market, b *wallet.Book) {
		bal := b.Balance(p)
		view = walletView{Principal: p, Balance: bal.Dec()}
	})
	writeJSON(w, http.StatusOK, view)
}

// handleEvents returns events with seq >= from, the whole history by
// default. next is the from value that continues the stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var from int64
	if raw := r.URL.Query().Get("from"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errorBody{
				Code:    string(engine.ErrCodeInvalidCall),
				Message: fmt.Sprintf("invalid from %q", raw),
			})
			return
		}
		from = n
	}
	after := from - 1
	if after < 0 {
		after = 0
	}
	events := s.engine.Events(after)
	next := max(from, 1)
	if len(events) > 0 {
		next = events[len(events)-1].Seq + 1
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Next: next})
}

func (s *Server) handlePutContent(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, content.MaxSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, errorBody{
			Code:    "CONTENT_TOO_LARGE",
			Message: err.Error(),
		})
		return
	}
	handle, err := s.content.Put(r.Context(), data)
	if err != nil {
		status, body := describeError(err)
		writeError(w, status, body)
		return
	}
	writeJSON(w, http.StatusCreated, contentResponse{Handle: handle})
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	data, err := s.content.Get(r.Context(), mux.Vars(r)["handle"])
	if err != nil {
		status, body := describeError(err)
		writeError(w, status, body)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("write content", "error", err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{
			Code:    string(engine.ErrCodeInvalidCall),
			Message: fmt.Sprintf("invalid %s %q", name, raw),
		})
		return 0, false
	}
	return id, true
}
