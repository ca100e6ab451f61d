package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"taskboard/domain"
)

const (
	tasksPartition = "tasks"
	edmInt64       = "Edm.Int64"
	maxETagRetries = 5
)

// tableClient is the subset of *aztables.Client used by TableStore.
type tableClient interface {
	CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	NewListEntitiesPager(listOptions *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

// TableStore persists tasks in an Azure Storage table, one partition per
// board. Writes to an existing row are guarded by its ETag.
type TableStore struct {
	table tableClient
	clock *Clock
}

// NewTableStore creates a TableStore from a storage connection string.
func NewTableStore(connStr, tableName string) (*TableStore, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return newTableStore(svc.NewClient(tableName)), nil
}

func newTableStore(c tableClient) *TableStore {
	return &TableStore{table: c, clock: NewClock()}
}

type taskEntity struct {
	PartitionKey  string  `json:"PartitionKey"`
	RowKey        string  `json:"RowKey"`
	Title         string  `json:"Title"`
	Description   *string `json:"Description,omitempty"`
	Status        string  `json:"Status"`
	CreatedAt     int64   `json:"CreatedAt,string"`
	CreatedAtType string  `json:"CreatedAt@odata.type"`
	UpdatedAt     int64   `json:"UpdatedAt,string"`
	UpdatedAtType string  `json:"UpdatedAt@odata.type"`
}

func entityFromTask(t domain.Task) taskEntity {
	return taskEntity{
		PartitionKey:  tasksPartition,
		RowKey:        t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt.UnixMicro(),
		CreatedAtType: edmInt64,
		UpdatedAt:     t.UpdatedAt.UnixMicro(),
		UpdatedAtType: edmInt64,
	}
}

func (e taskEntity) toTask() domain.Task {
	return domain.Task{
		ID:          e.RowKey,
		Title:       e.Title,
		Description: e.Description,
		Status:      domain.Status(e.Status),
		CreatedAt:   time.UnixMicro(e.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMicro(e.UpdatedAt).UTC(),
	}
}

// Migrate creates the table if it does not exist yet.
func (s *TableStore) Migrate(ctx context.Context) error {
	_, err := s.table.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

func (s *TableStore) Insert(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	now := s.clock.Now()
	t := domain.Task{
		ID:          uuid.NewString(),
		Title:       nt.Title,
		Description: nt.Description,
		Status:      nt.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	payload, err := sonic.Marshal(entityFromTask(t))
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.table.AddEntity(ctx, payload, nil); err != nil {
		return domain.Task{}, fmt.Errorf("add task entity: %w", err)
	}
	return t, nil
}

func (s *TableStore) SelectAll(ctx context.Context) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + tasksPartition + "'"
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list task entities: %w", err)
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := sonic.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, ent.toTask())
		}
	}
	sortNewestFirst(tasks)
	return tasks, nil
}

func (s *TableStore) UpdatePartial(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	for attempt := 0; ; attempt++ {
		cur, etag, err := s.get(ctx, id)
		if err != nil {
			return domain.Task{}, err
		}
		updated := cur.Apply(p, s.clock.After(cur.UpdatedAt))
		payload, err := sonic.Marshal(entityFromTask(updated))
		if err != nil {
			return domain.Task{}, err
		}
		// Replace rather than merge so a cleared description drops the property.
		_, err = s.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeReplace})
		if err == nil {
			return updated, nil
		}
		switch statusCode(err) {
		case http.StatusNotFound:
			return domain.Task{}, domain.ErrNotFound
		case http.StatusPreconditionFailed:
			if attempt < maxETagRetries {
				continue
			}
		}
		return domain.Task{}, fmt.Errorf("update task entity: %w", err)
	}
}

func (s *TableStore) DeleteByID(ctx context.Context, id string) (domain.Task, error) {
	for attempt := 0; ; attempt++ {
		cur, etag, err := s.get(ctx, id)
		if err != nil {
			return domain.Task{}, err
		}
		_, err = s.table.DeleteEntity(ctx, tasksPartition, id, &aztables.DeleteEntityOptions{IfMatch: &etag})
		if err == nil {
			return cur, nil
		}
		switch statusCode(err) {
		case http.StatusNotFound:
			return domain.Task{}, domain.ErrNotFound
		case http.StatusPreconditionFailed:
			if attempt < maxETagRetries {
				continue
			}
		}
		return domain.Task{}, fmt.Errorf("delete task entity: %w", err)
	}
}

// Ping lists at most one entity to confirm the table answers.
func (s *TableStore) Ping(ctx context.Context) error {
	top := int32(1)
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Top: &top})
	if !pager.More() {
		return nil
	}
	_, err := pager.NextPage(ctx)
	return err
}

func (s *TableStore) Close() error { return nil }

func (s *TableStore) get(ctx context.Context, id string) (domain.Task, azcore.ETag, error) {
	resp, err := s.table.GetEntity(ctx, tasksPartition, id, nil)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return domain.Task{}, "", domain.ErrNotFound
		}
		return domain.Task{}, "", fmt.Errorf("get task entity: %w", err)
	}
	var ent taskEntity
	if err := sonic.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Task{}, "", err
	}
	return ent.toTask(), resp.ETag, nil
}

func statusCode(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}
