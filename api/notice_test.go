package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstudentv6/smart-student-notices/core"
	"github.com/smartstudentv6/smart-student-notices/core/notice"
	dummydb "github.com/smartstudentv6/smart-student-notices/storage/database/dummy"
	testutil "github.com/smartstudentv6/smart-student-notices/tests"
)

type testEnv struct {
	server      Server
	repo        notice.Repository
	service     *notice.Service
	roster      *testutil.FakeRoster
	workItems   *testutil.FakeWorkItems
	submissions *testutil.FakeSubmissions
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	core.LoadConfig()
	core.Conf.TestMode = true

	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewNoticeRepository(db)

	env := &testEnv{
		repo:        repo,
		roster:      &testutil.FakeRoster{Members: make(map[string][]string)},
		workItems:   &testutil.FakeWorkItems{States: make(map[string]map[string]notice.State), Terminal: make(map[string]bool)},
		submissions: &testutil.FakeSubmissions{Subs: make(map[string][]notice.Submission)},
	}
	env.service = notice.NewService(
		repo, env.roster, env.workItems, env.submissions,
		&testutil.FakeBroadcaster{}, testutil.TestLogger{T: t},
	)
	env.server = NewServer(&Options{Address: ":0", DisableReqLogs: true, NoticeSvc: env.service})
	return env
}

func (env *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, sub string, student, teacher bool) string {
	t.Helper()
	ss, err := GenerateToken(&Claims{
		StandardClaims: jwt.StandardClaims{Subject: sub},
		IsStudent:      student,
		IsTeacher:      teacher,
	}, []byte(core.Conf.SecretKey))
	require.NoError(t, err)
	return ss
}

func workItemBody(extra map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"work_item": map[string]interface{}{
			"id":            "A1",
			"kind":          "assignment",
			"course_id":     "7B",
			"subject":       "Fractions homework",
			"instructor_id": "profA",
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func TestNoticeAPI_authentication(t *testing.T) {
	env := setupEnv(t)

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not.a.jwt", http.StatusUnauthorized},
		{"valid token", token(t, "ana", true, false), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(t, http.MethodGet, "/v1/notices", tt.token, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	t.Run("token signed with another secret", func(t *testing.T) {
		ss, err := GenerateToken(&Claims{StandardClaims: jwt.StandardClaims{Subject: "ana"}}, []byte("wrong-secret"))
		require.NoError(t, err)
		rec := env.request(t, http.MethodGet, "/v1/notices", ss, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestNoticeAPI_emitWorkItemCreated(t *testing.T) {
	env := setupEnv(t)
	teacher := token(t, "profA", false, true)

	t.Run("stored emission returns the record", func(t *testing.T) {
		env.roster.Members["7B"] = []string{"ana", "luis", "profA"}

		rec := env.request(t, http.MethodPost, "/v1/notices/work-items", teacher, workItemBody(nil))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var n notice.Notice
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))
		assert.Equal(t, notice.KindWorkItemCreated, n.Kind)
		assert.ElementsMatch(t, []string{"ana", "luis"}, n.Targets)
	})

	t.Run("empty roster suppresses quietly", func(t *testing.T) {
		env.roster.Members["7B"] = nil

		rec := env.request(t, http.MethodPost, "/v1/notices/work-items", teacher, workItemBody(nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("invalid body rejected", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/notices/work-items", teacher, map[string]interface{}{
			"work_item": map[string]interface{}{"kind": "assignment"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNoticeAPI_emitCompletionDuplicate(t *testing.T) {
	env := setupEnv(t)
	teacher := token(t, "profA", false, true)

	rec := env.request(t, http.MethodPost, "/v1/notices/completions", teacher, workItemBody(nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.request(t, http.MethodPost, "/v1/notices/completions", teacher, workItemBody(nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNoticeAPI_emitComment(t *testing.T) {
	env := setupEnv(t)
	env.roster.Members["7B"] = []string{"ana", "profA"}

	body := workItemBody(map[string]interface{}{
		"originator":      "ana",
		"originator_role": "learner",
		"excerpt":         "why is 1/2 bigger?",
	})
	rec := env.request(t, http.MethodPost, "/v1/notices/comments", token(t, "ana", true, false), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var n notice.Notice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))
	assert.Equal(t, notice.RoleInstructor, n.Role)
	assert.Equal(t, []string{"profA"}, n.Targets)

	t.Run("bad role rejected", func(t *testing.T) {
		body := workItemBody(map[string]interface{}{
			"originator":      "ana",
			"originator_role": "admin",
		})
		rec := env.request(t, http.MethodPost, "/v1/notices/comments", token(t, "ana", true, false), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNoticeAPI_listCountAck(t *testing.T) {
	env := setupEnv(t)
	student := token(t, "ana", true, false)

	testutil.CreateNotice(t, env.repo, notice.KindWorkItemCreated, "A1", "7B", notice.RoleLearner, []string{"ana", "luis"}, "profA")
	grade := testutil.CreateNotice(t, env.repo, notice.KindGradePosted, "A2", "7B", notice.RoleLearner, []string{"ana"}, "profA")

	rec := env.request(t, http.MethodGet, "/v1/notices", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []notice.Notice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = env.request(t, http.MethodGet, "/v1/notices/count", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 2}`, rec.Body.String())

	rec = env.request(t, http.MethodPost, fmt.Sprintf("/v1/notices/%s/ack", grade.ID), student, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.request(t, http.MethodGet, "/v1/notices/count", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 1}`, rec.Body.String())

	t.Run("acknowledging an unknown id is a no-op", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/notices/no-such-id/ack", student, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestNoticeAPI_roleOverride(t *testing.T) {
	env := setupEnv(t)

	t.Run("student may not read as instructor", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/notices/count?role=instructor", token(t, "ana", true, false), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("teacher defaults to instructor and may not drop to learner", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/notices/count?role=learner", token(t, "profA", false, true), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("dual-portal token may pick either role", func(t *testing.T) {
		dual := token(t, "assistant", true, true)
		for _, role := range []string{"learner", "instructor"} {
			rec := env.request(t, http.MethodGet, "/v1/notices/count?role="+role, dual, nil)
			assert.Equal(t, http.StatusOK, rec.Code, role)
		}
	})
}

func TestNoticeAPI_reconcile(t *testing.T) {
	env := setupEnv(t)
	teacher := token(t, "profA", false, true)

	testutil.CreateNotice(t, env.repo, notice.KindPendingReview, "A1", "7B", notice.RoleInstructor, []string{"profA"}, notice.SystemOriginator)
	env.workItems.Terminal["A1"] = true

	rec := env.request(t, http.MethodPost, "/v1/notices/reconcile", teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed": 1}`, rec.Body.String())

	// second run is a no-op
	rec = env.request(t, http.MethodPost, "/v1/notices/reconcile", teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed": 0}`, rec.Body.String())
}
