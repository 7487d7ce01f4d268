package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tingold/orb-meos/fgb"
	"github.com/tingold/orb-meos/internal/config"
)

// TripServer serves one trips FlatGeobuf file:
//
//	GET /trips.fgb                          the file itself
//	GET /trips.geojson[?bbox=x0,y0,x1,y1]   trips as GeoJSON, optionally
//	                                        only those intersecting bbox
//	GET /header                             the layer header as JSON
type TripServer struct {
	data   []byte
	reader *fgb.Reader
	mux    *http.ServeMux
}

// NewTripServer validates data as a trips file and returns its server.
func NewTripServer(data []byte) (*TripServer, error) {
	r, err := fgb.NewReaderFromData(data)
	if err != nil {
		return nil, err
	}
	s := &TripServer{data: data, reader: r, mux: http.NewServeMux()}
	s.mux.HandleFunc("/trips.fgb", s.handleFGB)
	s.mux.HandleFunc("/trips.geojson", s.handleGeoJSON)
	s.mux.HandleFunc("/header", s.handleHeader)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *TripServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	Logger().Debug("request", zap.String("path", r.URL.Path), zap.String("query", r.URL.RawQuery))
	s.mux.ServeHTTP(w, r)
}

// Close releases the reader.
func (s *TripServer) Close() error {
	return s.reader.Close()
}

func (s *TripServer) handleFGB(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(s.data)))
	_, _ = w.Write(s.data)
}

func (s *TripServer) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	var (
		trips []fgb.Trip
		err   error
	)
	if q := r.URL.Query().Get("bbox"); q != "" {
		bound, perr := parseBBox(q)
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		trips, err = s.reader.Search(bound)
	} else {
		trips, err = s.reader.ReadTrips()
	}
	if err != nil {
		Logger().Warn("read trips", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data, err := fgb.FeatureCollection(trips).MarshalJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func (s *TripServer) handleHeader(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.reader.Header())
}

// parseBBox parses "minx,miny,maxx,maxy".
func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox needs 4 numbers, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox: %w", err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, errors.New("bbox minimum exceeds maximum")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <trips.fgb>",
		Short: "Serve a trips FlatGeobuf file over HTTP",
		Long: `Serve a FlatGeobuf file written by "trips --encoding fgb".

Endpoints: /trips.fgb (the file), /trips.geojson?bbox=minx,miny,maxx,maxy
(trips intersecting the box as GeoJSON) and /header (layer metadata).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			overrideString(cmd, "addr", &cfg.Serve.Addr, addr)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read trips file", err)
			}
			srv, err := NewTripServer(data)
			if err != nil {
				return WrapExitError(ExitCommandError, "open trips file", err)
			}
			defer srv.Close()

			f := newFormatter(rootOpts, cmd)
			f.VerboseLog("serving %s on %s", args[0], cfg.Serve.Addr)
			if err := listenAndServe(cmd.Context(), cfg.Serve.Addr, srv); err != nil {
				return WrapExitError(ExitFailure, "serve", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.Default().Serve.Addr, "listen address")
	return cmd
}

// listenAndServe serves h on addr until ctx is done.
func listenAndServe(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- server.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
