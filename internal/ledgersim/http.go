package ledgersim

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
)

type balanceJSON struct {
	AssetType string `json:"asset_type"`
	Balance   string `json:"balance"`
}

type accountJSON struct {
	ID       string        `json:"id"`
	Sequence string        `json:"sequence"`
	Balances []balanceJSON `json:"balances"`
}

type submitJSON struct {
	Hash       string `json:"hash"`
	Successful bool   `json:"successful"`
	Ledger     int64  `json:"ledger"`
}

type resultCodes struct {
	Transaction string   `json:"transaction"`
	Operations  []string `json:"operations,omitempty"`
}

type problemJSON struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Extras *struct {
		ResultCodes resultCodes `json:"result_codes"`
	} `json:"extras,omitempty"`
}

// Handler exposes the ledger over HTTP.
func (l *Ledger) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/accounts/{id}", l.handleAccount).Methods(http.MethodGet)
	r.HandleFunc("/transactions", l.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/friendbot", l.handleFriendbot).Methods(http.MethodGet, http.MethodPost)
	return r
}

func (l *Ledger) handleAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !crypto.ValidAddress(id) {
		writeProblem(w, http.StatusBadRequest, "bad_request", "Bad Request", "invalid account id", nil)
		return
	}
	acc, ok := l.Account(id)
	if !ok {
		writeProblem(w, http.StatusNotFound, "not_found", "Resource Missing", "account not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, accountJSON{
		ID:       acc.ID,
		Sequence: strconv.FormatInt(acc.Sequence, 10),
		Balances: []balanceJSON{{AssetType: "native", Balance: domain.FormatAmount(acc.Balance)}},
	})
}

func (l *Ledger) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "Bad Request", err.Error(), nil)
		return
	}
	tx := r.PostForm.Get("tx")
	if tx == "" {
		writeProblem(w, http.StatusBadRequest, "bad_request", "Bad Request", "missing tx", nil)
		return
	}
	res, err := l.Submit(tx)
	if err != nil {
		rej, ok := err.(*Rejection)
		if !ok {
			writeProblem(w, http.StatusInternalServerError, "server_error", "Internal Server Error", err.Error(), nil)
			return
		}
		writeProblem(w, http.StatusBadRequest, "transaction_failed", "Transaction Failed",
			"the transaction failed when submitted to the network",
			&resultCodes{Transaction: rej.Transaction, Operations: rej.Operations})
		return
	}
	writeJSON(w, http.StatusOK, submitJSON{Hash: res.Hash, Successful: true, Ledger: res.Ledger})
}

func (l *Ledger) handleFriendbot(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("addr")
	if err := l.Fund(addr); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "Bad Request", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, submitJSON{Hash: RandomHash(), Successful: true, Ledger: l.currentLedger()})
}

func (l *Ledger) currentLedger() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ledger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, typ, title, detail string, codes *resultCodes) {
	p := problemJSON{
		Type:   "https://stellar.org/horizon-errors/" + typ,
		Title:  title,
		Status: status,
		Detail: detail,
	}
	if codes != nil {
		p.Extras = &struct {
			ResultCodes resultCodes `json:"result_codes"`
		}{ResultCodes: *codes}
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}
