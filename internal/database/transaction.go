package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TxBuilder collects statements into one BEGIN/COMMIT block. Variables are
// namespaced per statement ($at becomes $v1_at) so two statements can reuse
// a name without clobbering each other.
//
// Transactions are batch based: nothing runs until Execute.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter int
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{vars: make(map[string]interface{})}
}

// Add appends a statement, renaming its variables
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) *TxBuilder {
	// Longest names first so $at never rewrites the prefix of $at_time.
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		tb.varCounter++
		renamed := fmt.Sprintf("v%d_%s", tb.varCounter, name)
		query = strings.ReplaceAll(query, "$"+name, "$"+renamed)
		tb.vars[renamed] = vars[name]
	}

	tb.statements = append(tb.statements, query)
	return tb
}

// Len returns the number of statements
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// Execute runs the statements atomically
func (tb *TxBuilder) Execute(ctx context.Context, db Database) error {
	query, vars := tb.Build()
	if query == "" {
		return nil
	}
	return db.Execute(ctx, query, vars)
}
