package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"club-room-booking/internal/middleware"
	"club-room-booking/internal/models"
	"club-room-booking/internal/repository"
	"club-room-booking/internal/schedule"
	"club-room-booking/internal/service"
	"club-room-booking/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	engine       *gin.Engine
	studentToken string
	otherToken   string
	adminToken   string
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitJWT("handler-test-secret", 15*time.Minute, time.Hour)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sched := schedule.MustDefault()
	roomRepo := repository.NewRoomRepo(db)
	calendarRepo := repository.NewCalendarRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	roomService := service.NewRoomService(db, sched, roomRepo, calendarRepo)
	if _, err := roomService.SeedRooms(context.Background()); err != nil {
		t.Fatalf("seed rooms: %v", err)
	}
	bookingService := service.NewBookingService(db, sched, roomRepo, bookingRepo, calendarRepo, nil)

	engine := gin.New()
	RegisterRoutes(engine, Routes{
		Auth:          NewAuthHandler(service.NewAuthService(userRepo, auditRepo, "@mylaurier.ca")),
		Room:          NewRoomHandler(roomService, sched),
		Booking:       NewBookingHandler(bookingService, sched),
		Report:        NewReportHandler(service.NewReportService(db, bookingRepo), sched),
		BookingLimits: limiter,
	})

	return &testServer{
		engine:       engine,
		studentToken: token(t, "stu-1", "ada@mylaurier.ca", models.RoleUser),
		otherToken:   token(t, "stu-2", "bo@mylaurier.ca", models.RoleUser),
		adminToken:   token(t, "adm-1", "admin@mylaurier.ca", models.RoleAdmin),
	}
}

func token(t *testing.T, uid, email, role string) string {
	t.Helper()
	tok, err := utils.GenerateAccessToken(utils.Identity{UID: uid, Email: email, DisplayName: email, Role: role})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w, env
}

func (s *testServer) createBooking(t *testing.T, tok string, body gin.H) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/bookings", tok, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, env.Error)
	}
	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.ID == "" {
		t.Fatalf("create response %s: %v", env.Data, err)
	}
	return data.ID
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	id := s.createBooking(t, s.studentToken, gin.H{
		"room_id":    "SB201",
		"date":       "2024-03-04",
		"start_time": "13:30",
		"end_time":   "15:30",
		"notes":      "Debate club",
	})

	w, env := s.do(t, http.MethodPost, "/bookings", s.otherToken, gin.H{
		"room_id": "SB201", "date": "2024-03-04", "start_slot": 12, "end_slot": 16,
	})
	if w.Code != http.StatusConflict || env.Error != "That time window is already claimed or pending review." {
		t.Fatalf("conflicting create: %d %q", w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodPost, "/admin/bookings/"+id+"/approve", s.adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodPost, "/admin/bookings/"+id+"/reject", s.adminToken, gin.H{"reason": "late"})
	if w.Code != http.StatusConflict {
		t.Fatalf("reject after approve: %d %s", w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodGet, "/bookings/"+id, s.studentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, env.Error)
	}
	var req models.BookingRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.Status != models.StatusApproved || req.StartSlot != 10 || req.EndSlot != 14 || len(req.History) != 2 {
		t.Fatalf("request = %s [%d,%d) history=%d", req.Status, req.StartSlot, req.EndSlot, len(req.History))
	}

	// Another student cannot see it.
	if w, _ := s.do(t, http.MethodGet, "/bookings/"+id, s.otherToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign get: %d", w.Code)
	}

	w, env = s.do(t, http.MethodGet, "/rooms/SB201/calendar/2024-03-04", s.otherToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("calendar: %d %s", w.Code, env.Error)
	}
	var day struct {
		Calendar models.RoomCalendar `json:"calendar"`
	}
	if err := json.Unmarshal(env.Data, &day); err != nil {
		t.Fatalf("decode calendar: %v", err)
	}
	if got := day.Calendar.SlotMap()[10]; got.RequestID != id || got.Status != models.SlotApproved {
		t.Fatalf("slot 10 = %+v", got)
	}
}

func TestCreateValidationOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"missing room", gin.H{"date": "2024-03-04", "start_slot": 1, "end_slot": 2}, http.StatusBadRequest},
		{"missing times", gin.H{"room_id": "SB201", "date": "2024-03-04"}, http.StatusBadRequest},
		{"bad clock", gin.H{"room_id": "SB201", "date": "2024-03-04", "start_time": "noon", "end_time": "14:00"}, http.StatusBadRequest},
		{"sunday", gin.H{"room_id": "SB201", "date": "2024-03-10", "start_slot": 1, "end_slot": 2}, http.StatusBadRequest},
		{"unknown room", gin.H{"room_id": "NOPE", "date": "2024-03-04", "start_slot": 1, "end_slot": 2}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/bookings", s.studentToken, tt.body)
			if w.Code != tt.want || env.Success {
				t.Fatalf("status = %d (%s), want %d", w.Code, env.Error, tt.want)
			}
		})
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t, nil)

	if w, _ := s.do(t, http.MethodGet, "/admin/bookings", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodGet, "/admin/bookings", s.studentToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("student: %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodGet, "/admin/bookings?status=pending,modified", s.adminToken, nil); w.Code != http.StatusOK {
		t.Fatalf("admin: %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodGet, "/admin/bookings?status=bogus", s.adminToken, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: %d", w.Code)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	s := newTestServer(t, nil)

	id := s.createBooking(t, s.studentToken, gin.H{"room_id": "SB105", "date": "2024-03-05", "start_slot": 0, "end_slot": 2})

	if w, _ := s.do(t, http.MethodPost, "/admin/bookings/"+id+"/reject", s.adminToken, gin.H{"reason": "  "}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank reason: %d", w.Code)
	}
	if w, env := s.do(t, http.MethodPost, "/admin/bookings/"+id+"/reject", s.adminToken, gin.H{"reason": "Closed"}); w.Code != http.StatusOK {
		t.Fatalf("reject: %d %s", w.Code, env.Error)
	}
	if w, _ := s.do(t, http.MethodPost, "/admin/bookings/missing/reject", s.adminToken, gin.H{"reason": "Closed"}); w.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", w.Code)
	}
}

func TestModifyOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	id := s.createBooking(t, s.studentToken, gin.H{"room_id": "SB201", "date": "2024-03-04", "start_slot": 10, "end_slot": 14})

	w, env := s.do(t, http.MethodPost, "/admin/bookings/"+id+"/modify", s.adminToken, gin.H{
		"date": "2024-03-05", "start_slot": 6, "end_slot": 8, "reason": "Moved",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("modify: %d %s", w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodGet, "/bookings/mine", s.studentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mine: %d %s", w.Code, env.Error)
	}
	var mine struct {
		Bookings []models.BookingRequest `json:"bookings"`
		Count    int                     `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &mine); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mine.Count != 1 || mine.Bookings[0].Status != models.StatusModified || mine.Bookings[0].Date != "2024-03-05" {
		t.Fatalf("mine = %+v", mine)
	}

	if w, _ := s.do(t, http.MethodPost, "/admin/bookings/"+id+"/modify", s.adminToken, gin.H{"end_slot": 30}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid modify: %d", w.Code)
	}
}

func TestRoomsAndSchedule(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodGet, "/schedule", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("schedule: %d", w.Code)
	}
	var info service.ScheduleInfo
	if err := json.Unmarshal(env.Data, &info); err != nil || info.TotalSlots != 29 {
		t.Fatalf("schedule = %+v, %v", info, err)
	}

	if w, _ := s.do(t, http.MethodGet, "/rooms", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous rooms: %d", w.Code)
	}

	s.createBooking(t, s.studentToken, gin.H{"room_id": "SB201", "date": "2024-03-04", "start_slot": 10, "end_slot": 14})
	w, env = s.do(t, http.MethodGet, "/rooms?building=Science&date=2024-03-04&start=13:30&end=14:30", s.otherToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rooms: %d %s", w.Code, env.Error)
	}
	var list struct {
		Rooms []models.Room `json:"rooms"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(list.Rooms) != 1 || list.Rooms[0].ID != "SB105" {
		t.Fatalf("free rooms = %+v", list.Rooms)
	}

	if w, _ := s.do(t, http.MethodGet, "/rooms?min_capacity=-1", s.otherToken, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad capacity: %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodGet, "/rooms/NOPE", s.otherToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown room: %d", w.Code)
	}
}

func TestUsageReportOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	id := s.createBooking(t, s.studentToken, gin.H{"room_id": "LIBB1", "date": "2024-03-04", "start_slot": 0, "end_slot": 2})
	if w, env := s.do(t, http.MethodPost, "/admin/bookings/"+id+"/approve", s.adminToken, gin.H{"admin_notes": "ok"}); w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, env.Error)
	}

	w, env := s.do(t, http.MethodGet, "/admin/reports/usage?year=2024&month=3&room_id=all", s.adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("usage: %d %s", w.Code, env.Error)
	}
	var body struct {
		Report service.UsageReport `json:"report"`
	}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Report.TotalBookings != 1 || body.Report.PerRoom[0].RoomName != "Library Basement 1" {
		t.Fatalf("report = %+v", body.Report)
	}

	if w, _ := s.do(t, http.MethodGet, "/admin/reports/usage?month=13", s.adminToken, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad month: %d", w.Code)
	}
}

func TestBookingRateLimit(t *testing.T) {
	s := newTestServer(t, middleware.NewRateLimiter(1, 1))
	body := func(start int) gin.H {
		return gin.H{"room_id": "SB201", "date": "2024-03-04", "start_slot": start, "end_slot": start + 1}
	}

	s.createBooking(t, s.studentToken, body(0))

	w, env := s.do(t, http.MethodPost, "/bookings", s.studentToken, body(2))
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "60" {
		t.Fatalf("second create: %d %q retry=%q", w.Code, env.Error, w.Header().Get("Retry-After"))
	}

	// Buckets are per caller.
	s.createBooking(t, s.otherToken, body(4))
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "ada@gmail.com", "password": "s3cret-pass"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign domain: %d %s", w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "ada@mylaurier.ca", "password": "s3cret-pass", "display_name": "Ada"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, env.Error)
	}
	if w, _ := s.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "ada@mylaurier.ca", "password": "s3cret-pass"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}

	w, env = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "ada@mylaurier.ca", "password": "s3cret-pass"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, env.Error)
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil || login.AccessToken == "" {
		t.Fatalf("login data %s: %v", env.Data, err)
	}

	id := s.createBooking(t, login.AccessToken, gin.H{"room_id": "P101", "date": "2024-03-06", "start_slot": 0, "end_slot": 4})
	if id == "" {
		t.Fatal("empty id")
	}

	if w, _ := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "ada@mylaurier.ca", "password": "nope-nope"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", w.Code)
	}
}

func TestAdminHousekeeping(t *testing.T) {
	s := newTestServer(t, nil)

	if w, _ := s.do(t, http.MethodDelete, "/admin/rooms/P101", s.studentToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("student deactivate: %d", w.Code)
	}
	if w, env := s.do(t, http.MethodDelete, "/admin/rooms/P101", s.adminToken, nil); w.Code != http.StatusOK {
		t.Fatalf("deactivate: %d %s", w.Code, env.Error)
	}
	if w, _ := s.do(t, http.MethodGet, "/rooms/P101", s.studentToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("deactivated room still visible: %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodDelete, "/admin/rooms/P101", s.adminToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second deactivate: %d", w.Code)
	}

	w, env := s.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "ada@mylaurier.ca", "password": "s3cret-pass"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, env.Error)
	}
	var reg struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w, env = s.do(t, http.MethodGet, "/auth/me", reg.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, env.Error)
	}
	var me service.UserResponse
	if err := json.Unmarshal(env.Data, &me); err != nil || me.Email != "ada@mylaurier.ca" || me.Role != models.RoleUser {
		t.Fatalf("me = %+v, %v", me, err)
	}
	// A valid token whose account was never stored
	if w, _ := s.do(t, http.MethodGet, "/auth/me", s.studentToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown account: %d", w.Code)
	}

	w, env = s.do(t, http.MethodGet, "/admin/audit-logs?limit=10", s.adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("audit logs: %d %s", w.Code, env.Error)
	}
	var logs struct {
		Logs []models.AuditLog `json:"logs"`
	}
	if err := json.Unmarshal(env.Data, &logs); err != nil || len(logs.Logs) != 1 || logs.Logs[0].Action != "user_registration" {
		t.Fatalf("logs = %+v, %v", logs.Logs, err)
	}
	if w, _ := s.do(t, http.MethodGet, "/admin/audit-logs?limit=0", s.adminToken, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", w.Code)
	}
}
