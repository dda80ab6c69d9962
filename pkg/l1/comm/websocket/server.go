package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l1"
	"github.com/robotalks/dro.go/pkg/l1/comm"
)

// DefaultPath is where the L1 endpoint is served.
const DefaultPath = "/l1"

// Server accepts L1 connections over websocket. Every connection acts
// as a Registrar: commands are posted to the loop and events are sent
// to all connections. The controller info is served as JSON at
// <Path>/meta.
type Server struct {
	Addr     string
	Path     string
	Listener net.Listener
	Info     l1.ControllerInfo

	ctx   context.Context
	conns comm.RegistrarMux
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, info l1.ControllerInfo) *Server {
	return &Server{Addr: addr, Path: DefaultPath, Info: info}
}

// SendEvent implements Registrar.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	return s.conns.SendEvent(ctx, msg)
}

// Connections returns the number of connected clients.
func (s *Server) Connections() int {
	return s.conns.Len()
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	s.ctx = ctx
	lis := s.Listener
	if lis == nil {
		var err error
		if lis, err = net.Listen("tcp", s.Addr); err != nil {
			return err
		}
	}
	glog.Infof("websocket serving at %s%s", lis.Addr(), s.path())
	srv := &http.Server{Handler: s.Handler()}
	return fx.RunWithContextCloser(ctx, srv, func() error {
		return srv.Serve(lis)
	})
}

// Handler returns the HTTP handler of the endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.path(), websocket.Server{Handler: s.serve})
	mux.HandleFunc(s.path()+"/meta", s.serveMeta)
	return mux
}

func (s *Server) path() string {
	if s.Path == "" {
		return DefaultPath
	}
	return "/" + strings.Trim(s.Path, "/")
}

func (s *Server) serve(conn *websocket.Conn) {
	remote := conn.Request().RemoteAddr
	reg := &comm.Registrar{}
	reg.Init(New(conn))
	s.conns.Add(reg)
	defer s.conns.Remove(reg)
	glog.Infof("websocket %s connected", remote)
	err := fx.RunWithContextCloser(s.ctx, reg, func() error {
		return reg.Serve(s.ctx)
	})
	glog.Infof("websocket %s disconnected: %v", remote, err)
}

func (s *Server) serveMeta(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&s.Info); err != nil {
		glog.Errorf("websocket meta: %v", err)
	}
}
