// Package server serves scenarios and grading over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachequiz/cache/trace"
	"github.com/sarchlab/cachequiz/datarecording"
	"github.com/sarchlab/cachequiz/grading"
	"github.com/sarchlab/cachequiz/hooking"
	"github.com/sarchlab/cachequiz/scenario"
)

// Server keeps the generated scenarios and serves them over HTTP. Every
// scenario owns its cache and memory; the server only indexes them.
type Server struct {
	portNumber int
	hooks      []hooking.Hook

	lock      sync.Mutex
	scenarios map[string]*scenario.Scenario
}

// NewServer creates a new Server
func NewServer() *Server {
	return &Server{
		scenarios: make(map[string]*scenario.Scenario),
	}
}

// WithPortNumber sets the port number of the server. Zero picks a random
// port.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	s.portNumber = portNumber

	return s
}

// WithRecorder records the accesses of every generated scenario.
func (s *Server) WithRecorder(recorder datarecording.DataRecorder) *Server {
	s.hooks = append(s.hooks, trace.NewDBTracer(recorder))
	return s
}

// WithLogger logs the accesses of every generated scenario.
func (s *Server) WithLogger(logger *log.Logger) *Server {
	s.hooks = append(s.hooks, trace.NewLogTracer(logger))
	return s
}

// Router returns the routes of the server.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scenarios", s.createScenario).Methods(http.MethodPost)
	api.HandleFunc("/scenarios", s.listScenarios).Methods(http.MethodGet)
	api.HandleFunc("/scenarios/{id}", s.getScenario).Methods(http.MethodGet)
	api.HandleFunc("/scenarios/{id}/cache", s.serializeCache).
		Methods(http.MethodGet)
	api.HandleFunc("/scenarios/{id}/grade/cache", s.gradeCache).
		Methods(http.MethodPost)
	api.HandleFunc("/scenarios/{id}/grade/access", s.gradeAccess).
		Methods(http.MethodPost)
	api.HandleFunc("/resource", s.listResources).Methods(http.MethodGet)
	api.HandleFunc("/profile", s.collectProfile).Methods(http.MethodGet)

	return r
}

// StartServer starts serving in the background and returns the URL.
func (s *Server) StartServer() string {
	actualPort := ":0"
	if s.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(s.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Serving cache exercises at %s\n", url)

	go func() {
		err := http.Serve(listener, s.Router())
		dieOnErr(err)
	}()

	return url
}

// Generate creates a scenario with the server's hooks attached and keeps
// it.
func (s *Server) Generate(cfg scenario.Config) (*scenario.Scenario, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	b := scenario.MakeBuilder().WithConfig(cfg)
	for _, h := range s.hooks {
		b = b.WithHook(h)
	}

	sc, err := b.Build()
	if err != nil {
		return nil, err
	}

	s.scenarios[sc.ID()] = sc

	return sc, nil
}

func (s *Server) find(id string) *scenario.Scenario {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.scenarios[id]
}

type errorRsp struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	dieOnErr(err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	rsp := errorRsp{Error: err.Error()}

	var configErr *scenario.ConfigError
	if errors.As(err, &configErr) {
		rsp.Field = configErr.Field
	}

	writeJSON(w, status, rsp)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

func (s *Server) createScenario(w http.ResponseWriter, r *http.Request) {
	cfg := scenario.DefaultConfig()

	if err := decodeBody(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sc, err := s.Generate(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusCreated, sc.Export())
}

func (s *Server) listScenarios(w http.ResponseWriter, _ *http.Request) {
	s.lock.Lock()
	ids := make([]string, 0, len(s.scenarios))
	for id := range s.scenarios {
		ids = append(ids, id)
	}
	s.lock.Unlock()

	sort.Strings(ids)

	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) findScenarioOr404(
	w http.ResponseWriter,
	r *http.Request,
) *scenario.Scenario {
	id := mux.Vars(r)["id"]

	sc := s.find(id)
	if sc == nil {
		writeError(w, http.StatusNotFound,
			fmt.Errorf("scenario %s not found", id))
	}

	return sc
}

func (s *Server) getScenario(w http.ResponseWriter, r *http.Request) {
	sc := s.findScenarioOr404(w, r)
	if sc == nil {
		return
	}

	writeJSON(w, http.StatusOK, sc.Export())
}

func (s *Server) serializeCache(w http.ResponseWriter, r *http.Request) {
	sc := s.findScenarioOr404(w, r)
	if sc == nil {
		return
	}

	depth := 2
	if d := r.URL.Query().Get("depth"); d != "" {
		var err error

		depth, err = strconv.Atoi(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	w.Header().Set("Content-Type", "application/json")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(sc.Cache())
	serializer.SetMaxDepth(depth)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type cacheGradeReq struct {
	Mode       grading.CacheMode `json:"mode"`
	ShowData   *bool             `json:"show_data,omitempty"`
	Weight     int               `json:"weight"`
	Submission map[string]string `json:"submission"`
}

func (s *Server) gradeCache(w http.ResponseWriter, r *http.Request) {
	sc := s.findScenarioOr404(w, r)
	if sc == nil {
		return
	}

	req := cacheGradeReq{Weight: 1}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := sc.Config()
	opts := grading.CacheOptions{
		Mode:      req.Mode,
		Base:      cfg.Base,
		ShowValid: cfg.ShowValid,
		ShowDirty: cfg.ShowDirty,
		ShowData:  req.ShowData == nil || *req.ShowData,
		Weight:    req.Weight,
	}

	result := sc.Export()

	grade, err := grading.GradeCacheTable(
		result.Initial, result.Final, req.Submission, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, grade)
}

type accessGradeReq struct {
	Mode       grading.AccessMode `json:"mode"`
	Weight     int                `json:"weight"`
	Submission []string           `json:"submission"`
}

func (s *Server) gradeAccess(w http.ResponseWriter, r *http.Request) {
	sc := s.findScenarioOr404(w, r)
	if sc == nil {
		return
	}

	req := accessGradeReq{Weight: 1}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	grade := grading.GradeAccessTable(sc.Export().Accesses, req.Submission,
		grading.AccessOptions{
			Mode:       req.Mode,
			EmptyCache: sc.Config().Fill == scenario.FillEmpty,
			Weight:     req.Weight,
		})

	writeJSON(w, http.StatusOK, grade)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (s *Server) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, http.StatusOK, prof)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
