package main

/* landanalyzer is a web server for interactive thresholding of
   remote sensing indicators over multi-band satellite imagery.
   At startup it reads one raster file per spectral band from the
   configured data directory, evaluates the registered indicator
   formulas over them and publishes three display layers: the
   true-colour composite, the selected indicator as a heatmap and a
   two-level classification recomputed on every threshold change.
   Configuration of the server is specified in the config.yaml
   file where the data directory, band file table and colour
   palette can be defined. */

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/CloudyKit/jet"
	reuseport "github.com/kavu/go_reuseport"
	"golang.org/x/net/context"

	"landanalyzer/bandstore"
	"landanalyzer/metrics"
	"landanalyzer/processor"
	"landanalyzer/utils"
)

const ISOFormat = "2006-01-02T15:04:05.000Z"

var (
	serverConfigFile = flag.String("conf", "config.yaml", "Server config file.")
	port             = flag.Int("p", 0, "Server listening port. Overrides the config file.")
	verbose          = flag.Bool("v", false, "Verbose mode for more server outputs.")
)

var config *utils.Config
var session *processor.Session
var pageTemplate *jet.Template
var heatmapPalette []color.RGBA

var (
	Error *log.Logger
	Info  *log.Logger
)

var metricsLogger metrics.Logger

// init initialises the loggers and loads the config document. This is
// the first function to be called in main.
func init() {
	Error = log.New(os.Stderr, "LandAnalyzer: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "LandAnalyzer: ", log.Ldate|log.Ltime|log.Lshortfile)

	flag.Parse()

	cfg, err := utils.LoadConfigFile(*serverConfigFile)
	if err != nil {
		Error.Printf("Error in loading config file: %v\n", err)
		panic(err)
	}
	config = cfg
	if *port > 0 {
		config.Port = *port
	}
	if *verbose {
		config.Verbose = true
	}

	tplPath := filepath.Join(config.TemplateDir, "main.tpl")
	if _, err := os.Stat(tplPath); os.IsNotExist(err) {
		panic(err)
	}
}

func main() {
	if config.MetricsLogDir != "" {
		metricsLogger = metrics.NewFileLogger(config.MetricsLogDir, 0, config.Verbose)
	} else {
		metricsLogger = metrics.NewStdoutLogger()
	}

	ctx := context.Background()

	store, err := bandstore.Load(ctx, config.DataDir, config.BandFiles)
	if err != nil {
		Error.Printf("Error in loading band store: %v\n", err)
		os.Exit(1)
	}
	Info.Printf("Band store ready: %v\n", store.BandNames())

	session, err = processor.InitSession(ctx, store, processor.DefaultIndexes())
	if err != nil {
		Error.Printf("Error in computing indexes: %v\n", err)
		os.Exit(1)
	}
	Info.Printf("Indexes computed: %v\n", session.IndexNames())

	heatmapPalette, err = utils.GradientRGBAPalette(config.Palette)
	if err != nil {
		Error.Printf("Error in building palette: %v\n", err)
		os.Exit(1)
	}

	view := jet.NewSet(jet.SafeWriter(func(w io.Writer, b []byte) {
		w.Write(b)
	}), config.TemplateDir, "/")
	pageTemplate, err = view.GetTemplate("main.tpl")
	if err != nil {
		Error.Printf("Error in loading page template: %v\n", err)
		os.Exit(1)
	}

	http.HandleFunc("/", instrument("page", pageHandler))
	http.HandleFunc("/layers/composite.png", instrument("composite", compositeHandler))
	http.HandleFunc("/layers/index.png", instrument("index", indexHandler))
	http.HandleFunc("/layers/classification.png", instrument("classification", classificationHandler))
	http.HandleFunc("/api/ranges", instrument("ranges", rangesHandler))

	listener, err := reuseport.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", config.Port))
	if err != nil {
		Error.Printf("Error in creating listener: %v\n", err)
		os.Exit(1)
	}
	Info.Printf("LandAnalyzer serving on port %d\n", config.Port)
	log.Fatal(http.Serve(listener, nil))
}

type layerHandler func(w http.ResponseWriter, r *http.Request, collector *metrics.MetricsCollector)

func instrument(layer string, handler layerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		collector := metrics.NewMetricsCollector(metricsLogger)
		collector.Info.ReqTime = t0.UTC().Format(ISOFormat)
		collector.Info.RemoteAddr = r.RemoteAddr
		collector.Info.URL.RawURL = r.URL.String()
		collector.Info.Render.Layer = layer
		collector.Info.HTTPStatus = http.StatusOK

		handler(w, r, collector)

		collector.Info.ReqDuration = time.Since(t0)
		collector.Info.Render.Duration = time.Since(t0)
		collector.Log()
	}
}

func writeError(w http.ResponseWriter, collector *metrics.MetricsCollector, status int, format string, args ...interface{}) {
	err := fmt.Errorf(format, args...)
	Error.Printf("%v\n", err)
	collector.Info.HTTPStatus = status
	http.Error(w, err.Error(), status)
}

func pageHandler(w http.ResponseWriter, r *http.Request, collector *metrics.MetricsCollector) {
	if r.URL.Path != "/" {
		writeError(w, collector, http.StatusNotFound, "no such page: %s", r.URL.Path)
		return
	}

	names := session.IndexNames()
	defaultIndex := names[0]
	bounds, err := session.RoundedRange(defaultIndex)
	if err != nil {
		writeError(w, collector, http.StatusInternalServerError, "page error: %v", err)
		return
	}

	vars := make(jet.VarMap)
	vars.Set("indexes", names)
	vars.Set("defaultIndex", defaultIndex)
	vars.Set("min", bounds.Min)
	vars.Set("max", bounds.Max)
	vars.Set("value", bounds.Median)

	w.Header().Set("Content-Type", "text/html")
	if err := pageTemplate.Execute(w, vars, nil); err != nil {
		Error.Printf("page template error: %v\n", err)
	}
}

func compositeHandler(w http.ResponseWriter, r *http.Request, collector *metrics.MetricsCollector) {
	out, err := utils.EncodeCompositePNG(session.Composite())
	if err != nil {
		writeError(w, collector, http.StatusInternalServerError, "composite error: %v", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(out)
}

func indexHandler(w http.ResponseWriter, r *http.Request, collector *metrics.MetricsCollector) {
	name := r.URL.Query().Get("index")
	collector.Info.Render.Index = name

	index, err := session.Index(name)
	if err != nil {
		writeError(w, collector, http.StatusBadRequest, "index layer: %v", err)
		return
	}
	stats, err := session.Range(name)
	if err != nil {
		writeError(w, collector, http.StatusBadRequest, "index layer: %v", err)
		return
	}

	scaled := utils.ScaleFloat64(index.Data, index.Height, index.Width, stats.Min, stats.Max)
	out, err := utils.EncodePNG([]*utils.ByteRaster{scaled}, heatmapPalette)
	if err != nil {
		writeError(w, collector, http.StatusInternalServerError, "index layer: %v", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(out)
}

func classificationHandler(w http.ResponseWriter, r *http.Request, collector *metrics.MetricsCollector) {
	name := r.URL.Query().Get("index")
	collector.Info.Render.Index = name

	threshold, err := strconv.ParseFloat(r.URL.Query().Get("threshold"), 64)
	if err != nil {
		writeError(w, collector, http.StatusBadRequest, "classification layer: invalid threshold: %v", err)
		return
	}
	collector.Info.Render.Threshold = &threshold

	classified, err := session.Classify(name, threshold)
	if err != nil {
		writeError(w, collector, http.StatusBadRequest, "classification layer: %v", err)
		return
	}

	stats := processor.ComputeRangeStats(classified.Data)
	scaled := utils.ScaleFloat64(classified.Data, classified.Height, classified.Width, stats.Min, stats.Max)
	out, err := utils.EncodePNG([]*utils.ByteRaster{scaled}, heatmapPalette)
	if err != nil {
		writeError(w, collector, http.StatusInternalServerError, "classification layer: %v", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(out)
}

func rangesHandler(w http.ResponseWriter, r *http.Request, collector *metrics.MetricsCollector) {
	name := r.URL.Query().Get("index")
	collector.Info.Render.Index = name

	bounds, err := session.RoundedRange(name)
	if err != nil {
		writeError(w, collector, http.StatusBadRequest, "ranges: %v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bounds); err != nil {
		Error.Printf("ranges encoding error: %v\n", err)
	}
}
