// Package repository holds the typed accessors over the document store. The
// list helpers implement the two degraded read paths every caller relies on:
// missing-index queries are re-issued unordered and sorted client-side, and
// permission-denied reads collapse to an empty result instead of failing the
// caller.
package repository

import (
	"context"
	"log"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/metrics"
)

const (
	collectionMachines = "machines"
	collectionOrders   = "orders"
	collectionPayments = "payments"
	collectionTokens   = "tokens"
	collectionVouchers = "vouchers"
	collectionUsers    = "users"
)

// findOrdered runs an ordered query, falling back to an unordered fetch plus
// a local sort (missing values last) when the store reports a missing index.
func findOrdered(ctx context.Context, col docstore.Collection, q docstore.Query) ([]docstore.Doc, error) {
	docs, err := col.Find(ctx, q)
	if err == nil {
		return docs, nil
	}
	if !docstore.IsMissingIndex(err) {
		return nil, err
	}

	log.Printf("WARN: index missing for ordered query, fetching unordered: %v", err)
	metrics.DegradedReadsTotal.WithLabelValues("missing_index").Inc()

	unordered := q
	unordered.OrderField = ""
	docs, err = col.Find(ctx, unordered)
	if err != nil {
		return nil, err
	}
	docstore.SortDocsByField(docs, q.OrderField, q.Desc)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

// findDegraded additionally treats a permission-denied read as an empty
// result. Liveness over correctness, by product decision.
func findDegraded(ctx context.Context, col docstore.Collection, q docstore.Query) ([]docstore.Doc, error) {
	docs, err := findOrdered(ctx, col, q)
	if err != nil {
		if docstore.IsPermissionDenied(err) {
			log.Printf("WARN: permission denied, returning empty result: %v", err)
			metrics.DegradedReadsTotal.WithLabelValues("permission_denied").Inc()
			return nil, nil
		}
		return nil, err
	}
	return docs, nil
}
