package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"material_lending/app"
	"material_lending/controllers"
	"material_lending/db"
	"material_lending/lending"
	"material_lending/lending/lendingtest"
	"material_lending/models"
	"material_lending/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) FindUser(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUsers) ListUsers(ctx context.Context, q string, role models.Role, page, size int) (db.ListUsersResult, error) {
	args := m.Called(ctx, q, role, page, size)
	return args.Get(0).(db.ListUsersResult), args.Error(1)
}

func (m *MockUsers) SetUserRole(ctx context.Context, userID uint, role models.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessions) RevokeAllForUser(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

type env struct {
	t        *testing.T
	router   *gin.Engine
	store    *lendingtest.Store
	users    *MockUsers
	sessions *MockSessions

	student, professor *models.User
	camera             *models.Material
}

// fakeAuth 用 X-User-ID 头代替 Redis 会话
func fakeAuth(store *lendingtest.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 64)
		u, err := store.FindUser(c.Request.Context(), uint(id))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
			return
		}
		c.Set(app.CtxUserID, u.ID)
		c.Set(app.CtxUser, u)
		c.Next()
	}
}

func newEnv(t *testing.T) *env {
	gin.SetMode(gin.TestMode)
	e := &env{t: t, store: lendingtest.New(), users: new(MockUsers), sessions: new(MockSessions)}
	e.student = e.store.AddUser("Ana", "ana@school.test", models.RoleStudent)
	e.professor = e.store.AddUser("Lima", "lima@school.test", models.RoleProfessor)
	cat := e.store.AddCategory("Photography")
	e.camera = e.store.AddMaterial(cat.ID, "Camera", 5, 7)

	s := &controllers.Srv{
		Lending: lending.NewService(e.store, nil, lending.DefaultPolicy(), nil),
		Users:   e.users,
		AppSess: e.sessions,
		Log:     zap.NewNop(),
	}
	e.router = gin.New()
	routes.Mount(e.router, s, fakeAuth(e.store))
	return e
}

func (e *env) do(method, path string, as *models.User, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("X-User-ID", strconv.FormatUint(uint64(as.ID), 10))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func errorCode(out map[string]any) string {
	e, _ := out["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	w, out := e.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["ok"])
}

func TestAuthAndRoleGates(t *testing.T) {
	e := newEnv(t)

	w, _ := e.do(http.MethodGet, "/api/cart", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(http.MethodGet, "/api/admin/requests", e.student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = e.do(http.MethodGet, "/api/cart", e.professor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = e.do(http.MethodGet, "/api/catalog", e.professor, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)

	w, out := e.do(http.MethodPost, "/api/cart/items", e.student,
		app.H{"materialId": e.camera.ID, "quantity": 3, "days": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(models.StatusDraft), out["status"])
	items := out["items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 3, items[0].(map[string]any)["quantity"])

	w, out = e.do(http.MethodGet, "/api/catalog/"+strconv.Itoa(int(e.camera.ID)), e.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, out["availableQuantity"])
	assert.EqualValues(t, 2, out["cartHeadroom"])

	w, out = e.do(http.MethodPost, "/api/cart/place", e.student, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, string(models.StatusPending), out["status"])
	id := strconv.Itoa(int(out["id"].(float64)))

	w, out = e.do(http.MethodGet, "/api/admin/requests?status=pending", e.professor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, out["total"])

	w, out = e.do(http.MethodPost, "/api/admin/requests/"+id+"/confirm", e.professor, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(models.StatusReserved), out["status"])

	w, out = e.do(http.MethodPost, "/api/requests/"+id+"/cancel", e.professor, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(lending.KindInvalidTransition), errorCode(out))

	w, out = e.do(http.MethodPost, "/api/admin/requests/"+id+"/return", e.professor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.StatusReturned), out["status"])

	w, out = e.do(http.MethodGet, "/api/requests/"+id+"/history", e.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["events"], 4)

	w, out = e.do(http.MethodGet, "/api/my/requests", e.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["requests"], 1)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	e := newEnv(t)

	w, out := e.do(http.MethodPost, "/api/cart/items", e.student,
		app.H{"materialId": e.camera.ID, "quantity": 6, "days": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(lending.KindInsufficientStock), errorCode(out))
	assert.Equal(t, "material", out["error"].(map[string]any)["entity"])

	w, out = e.do(http.MethodPost, "/api/cart/items", e.student,
		app.H{"materialId": e.camera.ID, "quantity": 1, "days": 8})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(lending.KindValidation), errorCode(out))

	w, out = e.do(http.MethodPost, "/api/cart/items", e.student, app.H{"quantity": 1, "days": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(lending.KindValidation), errorCode(out))

	w, out = e.do(http.MethodPost, "/api/cart/place", e.student, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(lending.KindEmptyCart), errorCode(out))

	w, out = e.do(http.MethodPost, "/api/admin/requests/404/confirm", e.professor, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(lending.KindNotFound), errorCode(out))

	w, _ = e.do(http.MethodPost, "/api/admin/requests/abc/confirm", e.professor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(http.MethodGet, "/api/admin/dashboard?from=15-02-2026", e.professor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(http.MethodGet, "/api/admin/dashboard?from=2026-03-01&to=2026-02-01", e.professor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(http.MethodGet, "/api/admin/requests?status=lost", e.professor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardAndOverdue(t *testing.T) {
	e := newEnv(t)

	w, out := e.do(http.MethodGet, "/api/admin/dashboard?categoryIds=1", e.professor, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, out, "stats")
	assert.Contains(t, out, "requestsPerMonth")

	w, out = e.do(http.MethodGet, "/api/admin/overdue", e.professor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, out["total"])
}

func TestSetRoleRevokesSessions(t *testing.T) {
	e := newEnv(t)
	e.users.On("SetUserRole", mock.Anything, e.student.ID, models.RoleProfessor).Return(nil).Once()
	e.sessions.On("RevokeAllForUser", mock.Anything, e.student.ID).Return(nil).Once()

	path := "/api/admin/users/" + strconv.Itoa(int(e.student.ID)) + "/role"
	w, _ := e.do(http.MethodPut, path, e.professor, app.H{"role": "professor"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, out := e.do(http.MethodPut, path, e.professor, app.H{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(lending.KindValidation), errorCode(out))

	self := "/api/admin/users/" + strconv.Itoa(int(e.professor.ID)) + "/role"
	w, _ = e.do(http.MethodPut, self, e.professor, app.H{"role": "student"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	e.users.AssertExpectations(t)
	e.sessions.AssertExpectations(t)
}

func TestListUsers(t *testing.T) {
	e := newEnv(t)
	e.users.On("ListUsers", mock.Anything, "ana", models.RoleStudent, 1, 20).
		Return(db.ListUsersResult{Users: []models.User{*e.student}, Total: 1}, nil).Once()

	w, out := e.do(http.MethodGet, "/api/admin/users?q=ana&role=student", e.professor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, out["total"])

	w, _ = e.do(http.MethodGet, "/api/admin/users?role=janitor", e.professor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.users.AssertExpectations(t)
}

func TestWhoAmIAndLogout(t *testing.T) {
	e := newEnv(t)

	w, out := e.do(http.MethodGet, "/api/me", e.professor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["isProfessor"])

	e.sessions.On("Delete", mock.Anything, "sess-1").Return(nil).Once()
	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.Header.Set("X-User-ID", strconv.Itoa(int(e.student.ID)))
	req.AddCookie(&http.Cookie{Name: app.AppSessionCookie, Value: "sess-1"})
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), app.AppSessionCookie+"=;")
	e.sessions.AssertExpectations(t)
}
