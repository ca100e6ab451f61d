package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

const healthTimeout = 2 * time.Second

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store TaskStore, logger *log.Logger) {
	e.GET(tasksRoute, listTasks(store, logger))
	e.POST(tasksRoute, createTask(store, logger))
	e.PUT(taskRoute, updateTask(store, logger))
	e.DELETE(taskRoute, deleteTask(store, logger))
	e.GET("/healthz", healthz(store))
}

func healthz(store TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.Logger().Errorf("health check failed: %v", err)
			return c.String(http.StatusServiceUnavailable, "store unavailable")
		}
		return c.NoContent(http.StatusOK)
	}
}

func listTasks(store TaskStore, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := startMetrics(c, logger, tasksRoute)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		storeStart := time.Now()
		tasks, fetchErr := store.SelectAll(ctx)
		metrics.ObserveStore(time.Since(storeStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			logStoreFault(logger, tasksRoute, "", fetchErr)
			return fail(c, http.StatusInternalServerError, msgFetchFailed)
		}
		if tasks == nil {
			tasks = []domain.Task{}
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = succeed(c, http.StatusOK, tasks, fmt.Sprintf("Retrieved %d tasks successfully", len(tasks)))
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createTask(store TaskStore, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := startMetrics(c, logger, tasksRoute)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
		var req domain.CreateRequest
		if decErr := dec.Decode(&req); decErr != nil {
			metrics.SetErrorStage("decode_body")
			return fail(c, http.StatusBadRequest, msgInvalidBody)
		}
		nt, valErr := domain.ValidateCreate(req)
		if valErr != nil {
			metrics.SetErrorStage("validation")
			return fail(c, http.StatusBadRequest, valErr.Error())
		}

		storeStart := time.Now()
		task, insErr := store.Insert(ctx, nt)
		metrics.ObserveStore(time.Since(storeStart))
		if insErr != nil {
			metrics.SetErrorStage("storage")
			logStoreFault(logger, tasksRoute, "", insErr)
			return fail(c, http.StatusInternalServerError, msgCreateFailed)
		}
		metrics.SetTaskID(task.ID)
		return succeed(c, http.StatusCreated, task, msgCreated)
	}
}

func updateTask(store TaskStore, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := startMetrics(c, logger, taskRoute)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		id := c.Param("id")
		metrics.SetTaskID(id)
		if !domain.ValidID(id) {
			metrics.SetErrorStage("validation")
			return fail(c, http.StatusBadRequest, domain.ErrInvalidID.Error())
		}

		body, readErr := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize))
		if readErr != nil {
			metrics.SetErrorStage("decode_body")
			return fail(c, http.StatusBadRequest, msgInvalidBody)
		}
		var patch domain.TaskPatch
		if decErr := patch.UnmarshalJSON(body); decErr != nil {
			if domain.IsValidation(decErr) {
				metrics.SetErrorStage("validation")
				return fail(c, http.StatusBadRequest, decErr.Error())
			}
			metrics.SetErrorStage("decode_body")
			return fail(c, http.StatusBadRequest, msgInvalidBody)
		}
		patch, valErr := patch.Validate()
		if valErr != nil {
			metrics.SetErrorStage("validation")
			return fail(c, http.StatusBadRequest, valErr.Error())
		}

		storeStart := time.Now()
		task, updErr := store.UpdatePartial(ctx, id, patch)
		metrics.ObserveStore(time.Since(storeStart))
		if updErr != nil {
			if errors.Is(updErr, domain.ErrNotFound) {
				metrics.SetErrorStage("not_found")
				return fail(c, http.StatusNotFound, notFoundMessage(id))
			}
			metrics.SetErrorStage("storage")
			logStoreFault(logger, taskRoute, id, updErr)
			return fail(c, http.StatusInternalServerError, msgUpdateFailed)
		}
		return succeed(c, http.StatusOK, task, msgUpdated)
	}
}

func deleteTask(store TaskStore, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := startMetrics(c, logger, taskRoute)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		id := c.Param("id")
		metrics.SetTaskID(id)
		if !domain.ValidID(id) {
			metrics.SetErrorStage("validation")
			return fail(c, http.StatusBadRequest, domain.ErrInvalidID.Error())
		}

		storeStart := time.Now()
		task, delErr := store.DeleteByID(ctx, id)
		metrics.ObserveStore(time.Since(storeStart))
		if delErr != nil {
			if errors.Is(delErr, domain.ErrNotFound) {
				metrics.SetErrorStage("not_found")
				return fail(c, http.StatusNotFound, notFoundMessage(id))
			}
			metrics.SetErrorStage("storage")
			logStoreFault(logger, taskRoute, id, delErr)
			return fail(c, http.StatusInternalServerError, msgDeleteFailed)
		}
		return succeed(c, http.StatusOK, task, msgDeleted)
	}
}

func startMetrics(c echo.Context, logger *log.Logger, route string) (*taskRequestMetrics, context.Context) {
	req := c.Request()
	metrics, ctx := newTaskRequestMetrics(req.Context(), logger, req.Method, route)
	c.SetRequest(req.WithContext(ctx))
	return metrics, ctx
}

func succeed(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Error: message})
}

func notFoundMessage(id string) string {
	return fmt.Sprintf("Task with id %s not found", id)
}

func logStoreFault(logger *log.Logger, route, id string, err error) {
	if logger == nil {
		return
	}
	fields := log.Fields{"route": route, "error": err}
	if id != "" {
		fields["task_id"] = id
	}
	logger.WithFields(fields).Error("task store operation failed")
}
