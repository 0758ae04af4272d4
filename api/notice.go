package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
	metricsvc "github.com/smartstudentv6/smart-student-notices/services/metrics"
)

type noticeAPI struct {
	service *notice.Service
}

func registerNoticeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notice.Service) {
	api := noticeAPI{service: svc}

	ng := g.Group("/notices", jwt)

	// emission entry points
	ng.POST("/work-items", api.emitWorkItemCreated)
	ng.POST("/submissions", api.emitSubmissionReceived)
	ng.POST("/completions", api.emitWorkItemCompleted)
	ng.POST("/comments", api.emitCommentPosted)
	ng.POST("/grades", api.emitGradePosted)

	// viewer endpoints
	ng.GET("", api.noticeList)
	ng.GET("/count", api.noticeCount)
	ng.POST("/:id/ack", api.acknowledge)

	// maintenance
	ng.POST("/reconcile", api.reconcile)
}

// respondEmission maps the emission outcome onto HTTP: a stored record is 201;
// a suppression or duplicate is a 204 no-op, never a failure.
func respondEmission(ctx echo.Context, kind notice.Kind, n notice.Notice, err error) error {
	switch {
	case err == nil:
		metricsvc.EmissionCount.WithLabelValues(string(kind), "emitted").Inc()
		return ctx.JSON(http.StatusCreated, n)
	case errors.Is(err, notice.ErrNoRecipients):
		metricsvc.EmissionCount.WithLabelValues(string(kind), "suppressed").Inc()
		return ctx.NoContent(http.StatusNoContent)
	case errors.Is(err, notice.ErrDuplicateSuppressed):
		metricsvc.EmissionCount.WithLabelValues(string(kind), "duplicate").Inc()
		return ctx.NoContent(http.StatusNoContent)
	}
	return err
}

func (api *noticeAPI) emitWorkItemCreated(ctx echo.Context) error {
	data := new(createdRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	n, err := api.service.EmitWorkItemCreated(data.WorkItem.toWorkItem())
	return respondEmission(ctx, notice.KindWorkItemCreated, n, err)
}

func (api *noticeAPI) emitSubmissionReceived(ctx echo.Context) error {
	data := new(submissionRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	n, err := api.service.EmitSubmissionReceived(data.WorkItem.toWorkItem(), data.Author)
	return respondEmission(ctx, notice.KindSubmissionReceived, n, err)
}

func (api *noticeAPI) emitWorkItemCompleted(ctx echo.Context) error {
	data := new(completionRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	n, err := api.service.EmitWorkItemCompleted(data.WorkItem.toWorkItem())
	return respondEmission(ctx, notice.KindWorkItemCompleted, n, err)
}

func (api *noticeAPI) emitCommentPosted(ctx echo.Context) error {
	data := new(commentRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	n, err := api.service.EmitCommentPosted(
		data.WorkItem.toWorkItem(), data.Originator, notice.Role(data.OriginatorRole), data.Excerpt,
	)
	return respondEmission(ctx, notice.KindCommentPosted, n, err)
}

func (api *noticeAPI) emitGradePosted(ctx echo.Context) error {
	data := new(gradeRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	n, err := api.service.EmitGradePosted(data.WorkItem.toWorkItem(), data.Learner, data.Score)
	return respondEmission(ctx, notice.KindGradePosted, n, err)
}

func (api *noticeAPI) noticeList(ctx echo.Context) error {
	viewer, role, err := contextViewer(ctx)
	if err != nil {
		return err
	}

	notices, err := api.service.ListFor(viewer, role)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *noticeAPI) noticeCount(ctx echo.Context) error {
	viewer, role, err := contextViewer(ctx)
	if err != nil {
		return err
	}

	count, err := api.service.CountFor(viewer, role)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: count})
}

func (api *noticeAPI) acknowledge(ctx echo.Context) error {
	viewer, _, err := contextViewer(ctx)
	if err != nil {
		return err
	}

	if err := api.service.Acknowledge(ctx.Param("id"), viewer); err != nil {
		return err
	}
	metricsvc.AckCount.Inc()
	return ctx.NoContent(http.StatusNoContent)
}

func (api *noticeAPI) reconcile(ctx echo.Context) error {
	removed, err := api.service.Reconcile()
	if err != nil {
		return err
	}
	metricsvc.SweptCount.Add(float64(removed))
	return ctx.JSON(http.StatusOK, reconcileResponse{Removed: removed})
}
