// Package backendtest provides an in-memory access-control backend for tests.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
)

// Member is the fake backend's member row.
type Member struct {
	ID      int
	Name    string
	GroupID int
	Access  bool
	Entered bool
	QRCode  string
}

// Group is the fake backend's group row.
type Group struct {
	ID      int
	Name    string
	OwnerID int
}

// User is a login account.
type User struct {
	ID       int
	Name     string
	Role     string
	Email    string
	Password string
	Token    string
}

// BulkRequest is the body of the last POST /members/haveAccess/bulk.
type BulkRequest struct {
	MemberIDs    []int  `json:"memberIds"`
	AccessStates []bool `json:"accessStates"`
}

type failure struct {
	code      int
	remaining int
}

// Server is an httptest server speaking the backend's REST dialect.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	groups   []Group
	members  map[int]*Member
	users    []User
	nextID   int
	calls    map[string]int
	failures map[string]failure
	lastBulk *BulkRequest
	lastAuth string
}

// New starts a fake backend. Close it with t.Cleanup(srv.Close).
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		members:  make(map[int]*Member),
		calls:    make(map[string]int),
		failures: make(map[string]failure),
		nextID:   1000,
	}

	r := gin.New()
	r.Use(s.track())
	r.POST("/login", s.login)
	r.GET("/members", s.listMembers)
	r.GET("/members/:id", s.getMember)
	r.POST("/members/:id/enter", s.enter)
	r.DELETE("/members/delete/:id", s.deleteMember)
	r.POST("/members/haveAccess/bulk", s.bulkAccess)
	r.GET("/hisenter/:id", s.hisEnter)
	r.GET("/groups", s.listGroups)
	r.POST("/groups/addmembers", s.addMember)
	r.GET("/my-groups/:userId", s.myGroups)
	r.POST("/generate-all-qr", s.generateAll)

	s.Server = httptest.NewServer(r)
	return s
}

// AddGroup registers a group.
func (s *Server) AddGroup(g Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, g)
}

// AddMember registers a member.
func (s *Server) AddMember(m Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := m
	s.members[m.ID] = &cp
}

// AddUser registers a login account.
func (s *Server) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

// SetEntered flips a member's entered flag.
func (s *Server) SetEntered(id int, entered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[id]; ok {
		m.Entered = entered
	}
}

// MemberState returns a copy of a member row.
func (s *Server) MemberState(id int) (Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// Fail makes the next n requests matching "METHOD /path" answer with code.
func (s *Server) Fail(route string, code, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{code: code, remaining: n}
}

// Calls returns how many times "METHOD /path" was requested.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastBulk returns the last bulk access request body.
func (s *Server) LastBulk() *BulkRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBulk
}

// LastAuthorization returns the Authorization header of the last request.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

func (s *Server) track() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.Request.Method + " " + c.Request.URL.Path

		s.mu.Lock()
		s.calls[route]++
		s.lastAuth = c.GetHeader("Authorization")
		code := 0
		if f, ok := s.failures[route]; ok && f.remaining > 0 {
			f.remaining--
			s.failures[route] = f
			code = f.code
		}
		s.mu.Unlock()

		if code != 0 {
			c.AbortWithStatusJSON(code, gin.H{"message": "forced failure"})
			return
		}
		c.Next()
	}
}

func (s *Server) memberJSON(m *Member) gin.H {
	return gin.H{
		"id":               m.ID,
		"name":             m.Name,
		"group_id":         m.GroupID,
		"has_access_today": m.Access,
		"entered":          m.Entered,
		"qr_code":          m.QRCode,
	}
}

func (s *Server) sortedMembers() []*Member {
	out := make([]*Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
		return 0, false
	}
	return id, true
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == req.Email && u.Password == req.Password {
			c.JSON(http.StatusOK, gin.H{
				"user":  gin.H{"id": u.ID, "name": u.Name, "role": u.Role},
				"token": u.Token,
			})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
}

func (s *Server) listMembers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gin.H{}
	for _, m := range s.sortedMembers() {
		out = append(out, s.memberJSON(m))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, found := s.members[id]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
		return
	}
	c.JSON(http.StatusOK, s.memberJSON(m))
}

func (s *Server) hisEnter(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, found := s.members[id]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entered": m.Entered})
}

func (s *Server) enter(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, found := s.members[id]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
		return
	}
	m.Entered = true
	c.JSON(http.StatusOK, gin.H{"message": "Entry recorded"})
}

func (s *Server) deleteMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.members[id]; !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
		return
	}
	delete(s.members, id)
	c.JSON(http.StatusOK, gin.H{"message": "Member deleted"})
}

func (s *Server) bulkAccess(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if len(req.MemberIDs) != len(req.AccessStates) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "length mismatch"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBulk = &req
	for i, id := range req.MemberIDs {
		if m, ok := s.members[id]; ok {
			m.Access = req.AccessStates[i]
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Access updated"})
}

func (s *Server) groupJSON(g Group, nested string, counters bool) gin.H {
	details := []gin.H{}
	access, entered := 0, 0
	for _, m := range s.sortedMembers() {
		if m.GroupID != g.ID {
			continue
		}
		details = append(details, s.memberJSON(m))
		if m.Access {
			access++
		}
		if m.Entered {
			entered++
		}
	}
	out := gin.H{"id": g.ID, "name": g.Name, nested: details}
	if counters {
		out["membersCount"] = len(details)
		out["accessToday"] = access
		out["entered"] = entered
	}
	return out
}

func (s *Server) listGroups(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gin.H{}
	for _, g := range s.groups {
		out = append(out, s.groupJSON(g, "memberDetails", true))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) myGroups(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"groups": []gin.H{}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gin.H{}
	for _, g := range s.groups {
		if g.OwnerID == userID {
			out = append(out, s.groupJSON(g, "members", false))
		}
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

func (s *Server) addMember(c *gin.Context) {
	var req struct {
		GroupID int    `json:"groupId"`
		Name    string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "groupId and name are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m := &Member{ID: s.nextID, Name: req.Name, GroupID: req.GroupID}
	s.members[m.ID] = m
	c.JSON(http.StatusCreated, s.memberJSON(m))
}

func (s *Server) generateAll(c *gin.Context) {
	if c.GetHeader("Authorization") == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Missing token"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		m.QRCode = fmt.Sprintf("data:image/png;base64,qr-%d", m.ID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "All QR codes generated"})
}
