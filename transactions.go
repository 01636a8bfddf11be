// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"errors"
	"sort"
	"time"

	"github.com/pion/icelite/stun"
)

type transactionID [stun.TransactionIDSize]byte

// transaction is an outstanding connectivity check. Retransmissions reuse
// raw, so every request of a transaction carries the same transaction ID.
type transaction struct {
	id           transactionID
	pair         *CandidatePair
	raw          []byte
	useCandidate bool
	controlling  bool
	attempts     int
	rto          time.Duration
	deadline     time.Time
}

var (
	// errTransactionExists indicates that transaction with same id is already
	// registered.
	errTransactionExists = errors.New("transaction exists with same id")

	// errTransactionTableClosed indicates that the table no longer accepts
	// transactions.
	errTransactionTableClosed = errors.New("transaction table is closed")
)

// transactionTable tracks checks that are waiting for a response. It is
// owned by the checklist and is not safe for concurrent use.
type transactionTable struct {
	transactions map[transactionID]*transaction
	closed       bool
}

func newTransactionTable() *transactionTable {
	return &transactionTable{
		transactions: make(map[transactionID]*transaction),
	}
}

// start registers t.
func (t *transactionTable) start(tr *transaction) error {
	if t.closed {
		return errTransactionTableClosed
	}
	if _, exists := t.transactions[tr.id]; exists {
		return errTransactionExists
	}
	t.transactions[tr.id] = tr

	return nil
}

// get returns the transaction without unregistering it.
func (t *transactionTable) get(id transactionID) (*transaction, bool) {
	tr, ok := t.transactions[id]

	return tr, ok
}

// take unregisters and returns the transaction with id, if any.
func (t *transactionTable) take(id transactionID) (*transaction, bool) {
	tr, ok := t.transactions[id]
	delete(t.transactions, id)

	return tr, ok
}

// collect returns all transactions with deadline not after now, ordered by
// deadline. They stay registered.
func (t *transactionTable) collect(now time.Time) []*transaction {
	var expired []*transaction
	for _, tr := range t.transactions {
		if !tr.deadline.After(now) {
			expired = append(expired, tr)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].deadline.Before(expired[j].deadline)
	})

	return expired
}

// stopPair unregisters every transaction of p.
func (t *transactionTable) stopPair(p *CandidatePair) {
	for id, tr := range t.transactions {
		if tr.pair == p {
			delete(t.transactions, id)
		}
	}
}

// hasPair reports whether p has an outstanding transaction.
func (t *transactionTable) hasPair(p *CandidatePair) bool {
	for _, tr := range t.transactions {
		if tr.pair == p {
			return true
		}
	}

	return false
}

func (t *transactionTable) len() int {
	return len(t.transactions)
}

// close drops all transactions and rejects new ones.
func (t *transactionTable) close() {
	t.transactions = map[transactionID]*transaction{}
	t.closed = true
}
