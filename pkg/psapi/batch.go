package psapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedOperationType = errors.New("unsupported operation type")
	ErrTableRequired            = errors.New("operation table is required")
	ErrTransactionFailed        = errors.New("transaction failed")
)

// DefaultBatchConcurrency is the number of operations run at once when none is configured.
const DefaultBatchConcurrency = 5

// OperationType is the kind of a batch operation.
type OperationType string

// Operation types.
const (
	OperationGet    OperationType = "get"
	OperationInsert OperationType = "insert"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// BatchOperation is a single-row operation on a schema table.
type BatchOperation struct {
	ID       string             `json:"id"             yaml:"id"`
	Type     OperationType      `json:"type"           yaml:"type"`
	Table    string             `json:"table"          yaml:"table"`
	PK       string             `json:"pk"             yaml:"pk"`
	Data     interface{}        `json:"data,omitempty" yaml:"data,omitempty"`
	Callback func(*BatchResult) `json:"-"              yaml:"-"`
}

// BatchResult is the outcome of one operation.
type BatchResult struct {
	ID       string        `json:"id"               yaml:"id"`
	Success  bool          `json:"success"          yaml:"success"`
	Record   Record        `json:"record,omitempty" yaml:"record,omitempty"`
	Error    error         `json:"-"                yaml:"-"`
	Duration time.Duration `json:"duration"         yaml:"duration"`
}

// BatchExecutor runs operations concurrently against a client.
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the timeout of each operation.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs every operation and returns the results in operation order.
// Failed operations are reported in their result, not as an error.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) []BatchResult {
	results := make([]BatchResult, len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, operation := range operations {
		waitGroup.Add(1)

		go func(index int, operation BatchOperation) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}
		}(index, operation)
	}

	waitGroup.Wait()

	return results
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	if operation.Table == "" {
		result.Error = ErrTableRequired

		return result
	}

	table := b.client.Table(operation.Table)

	var err error

	switch operation.Type {
	case OperationGet:
		result.Record, err = table.Get(ctx, operation.PK, nil)
	case OperationInsert:
		result.Record, err = table.Insert(ctx, operation.PK, operation.Data)
	case OperationUpdate:
		result.Record, err = table.Update(ctx, operation.PK, operation.Data)
	case OperationDelete:
		err = table.Delete(ctx, operation.PK)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
	}

	result.Success = err == nil
	result.Error = err

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{}
}

func (b *BatchBuilder) add(id string, op OperationType, table, pk string, data interface{}) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:    id,
		Type:  op,
		Table: table,
		PK:    pk,
		Data:  data,
	})

	return b
}

// AddGet adds a row read.
func (b *BatchBuilder) AddGet(id, table, pk string) *BatchBuilder {
	return b.add(id, OperationGet, table, pk, nil)
}

// AddInsert adds a row insert.
func (b *BatchBuilder) AddInsert(id, table, pk string, data interface{}) *BatchBuilder {
	return b.add(id, OperationInsert, table, pk, data)
}

// AddUpdate adds a row update.
func (b *BatchBuilder) AddUpdate(id, table, pk string, data interface{}) *BatchBuilder {
	return b.add(id, OperationUpdate, table, pk, data)
}

// AddDelete adds a row delete.
func (b *BatchBuilder) AddDelete(id, table, pk string) *BatchBuilder {
	return b.add(id, OperationDelete, table, pk, nil)
}

// AddOperation adds a custom operation.
func (b *BatchBuilder) AddOperation(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the built operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}

// BatchTransaction runs a batch and undoes its inserts when any operation fails.
// Updates and deletes cannot be undone.
type BatchTransaction struct {
	operations []BatchOperation
	executor   *BatchExecutor
	rollback   bool
}

// NewBatchTransaction creates a new batch transaction.
func NewBatchTransaction(executor *BatchExecutor) *BatchTransaction {
	return &BatchTransaction{
		executor: executor,
		rollback: true,
	}
}

// Add adds an operation to the transaction.
func (t *BatchTransaction) Add(operation BatchOperation) *BatchTransaction {
	t.operations = append(t.operations, operation)

	return t
}

// SetRollback sets whether to rollback on failure.
func (t *BatchTransaction) SetRollback(rollback bool) *BatchTransaction {
	t.rollback = rollback

	return t
}

// Execute executes the transaction. The returned results are those of the
// transaction's own operations, rollback deletes are not included.
func (t *BatchTransaction) Execute(ctx context.Context) ([]BatchResult, error) {
	results := t.executor.Execute(ctx, t.operations)

	var failed []string

	for _, result := range results {
		if !result.Success {
			failed = append(failed, result.ID)
		}
	}

	if len(failed) == 0 {
		return results, nil
	}

	if t.rollback {
		t.executor.Execute(ctx, t.rollbackOperations(results))
	}

	return results, fmt.Errorf("%w, %d operations failed: %v", ErrTransactionFailed, len(failed), failed)
}

// rollbackOperations deletes every row the transaction inserted.
func (t *BatchTransaction) rollbackOperations(results []BatchResult) []BatchOperation {
	var ops []BatchOperation

	for i, result := range results {
		original := t.operations[i]
		if result.Success && original.Type == OperationInsert {
			ops = append(ops, BatchOperation{
				ID:    "rollback_" + original.ID,
				Type:  OperationDelete,
				Table: original.Table,
				PK:    original.PK,
			})
		}
	}

	return ops
}
