package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/araddon/dateparse"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/airbusgeo/stac-fetch/bands"
	"github.com/airbusgeo/stac-fetch/catalog"
	"github.com/airbusgeo/stac-fetch/common"
	"github.com/airbusgeo/stac-fetch/downloader"
	ifcatalog "github.com/airbusgeo/stac-fetch/interface/catalog"
	"github.com/airbusgeo/stac-fetch/interface/catalog/earthsearch"
	"github.com/airbusgeo/stac-fetch/interface/catalog/generic"
	"github.com/airbusgeo/stac-fetch/interface/catalog/planetary"
	"github.com/airbusgeo/stac-fetch/service"
	"github.com/airbusgeo/stac-fetch/service/log"
)

type config struct {
	Provider string
	APIURL   string

	Collections string
	BBox        string
	AOIFile     string
	StartDate   string
	EndDate     string
	CloudCover  float64
	Limit       int
	PageSize    int

	Bands     string
	BandsFile string

	DestDir      string
	Workers      int
	Retries      int
	Overwrite    bool
	PreferS3     bool
	RequestPayer bool

	ReportPath string
	Resume     bool

	MonitoringAddr string
}

// credentials are taken from the environment, never from flags
type credentials struct {
	// SubscriptionKey of the Planetary Computer (raises rate limits)
	SubscriptionKey string `envconfig:"SUBSCRIPTION_KEY"`
	// APIToken sent as a bearer token to generic catalogs
	APIToken string `envconfig:"API_TOKEN"`
}

func newAppConfig() (*config, error) {
	config := config{}

	// Catalog
	flag.StringVar(&config.Provider, "provider", "", "catalog provider: planetary, earthsearch or generic")
	flag.StringVar(&config.APIURL, "api-url", "", "catalog API root url (required for generic, overrides the default for the others)")

	// Search
	flag.StringVar(&config.Collections, "collections", "", "comma-separated collection ids (e.g. sentinel-2-l2a)")
	flag.StringVar(&config.BBox, "bbox", "", "search bounding box: west,south,east,north")
	flag.StringVar(&config.AOIFile, "aoi", "", "geojson file restricting the search to an area of interest (optional)")
	flag.StringVar(&config.StartDate, "start-date", "", "start of the acquisition interval (inclusive)")
	flag.StringVar(&config.EndDate, "end-date", "", "end of the acquisition interval (inclusive)")
	flag.Float64Var(&config.CloudCover, "cloud-cover", -1, "maximum eo:cloud_cover in percent (optional)")
	flag.IntVar(&config.Limit, "limit", 0, "maximum number of items to download (0: all matches)")
	flag.IntVar(&config.PageSize, "page-size", 100, "number of items per catalog page")

	// Bands
	flag.StringVar(&config.Bands, "bands", "", "comma-separated band identifiers (canonical names or provider keys)")
	flag.StringVar(&config.BandsFile, "bands-file", "", "yaml file overriding the built-in band alias table (optional)")

	// Transfers
	flag.StringVar(&config.DestDir, "dest", ".", "destination directory (one sub-directory per item)")
	flag.IntVar(&config.Workers, "workers", 4, "number of parallel transfers")
	flag.IntVar(&config.Retries, "retries", 3, "number of retries per asset on temporary failures")
	flag.BoolVar(&config.Overwrite, "overwrite", false, "re-fetch assets already present on disk")
	flag.BoolVar(&config.PreferS3, "prefer-s3", false, "download from the s3:// alternate hrefs when published (earthsearch)")
	flag.BoolVar(&config.RequestPayer, "request-payer", false, "enable requester-pays on s3 transfers")

	// Report
	flag.StringVar(&config.ReportPath, "report", "", "path of the run report (default: <dest>/report.json)")
	flag.BoolVar(&config.Resume, "resume", false, "skip the tasks completed by the previous report")

	// Monitoring
	flag.StringVar(&config.MonitoringAddr, "monitoring-addr", "", "address of the http monitoring endpoint (optional, e.g. :9000)")

	flag.Parse()

	if config.Provider == "" {
		return nil, fmt.Errorf("missing provider config flag")
	}
	if config.Bands == "" {
		return nil, fmt.Errorf("missing bands config flag")
	}
	if config.ReportPath == "" {
		config.ReportPath = filepath.Join(config.DestDir, "report.json")
	}
	return &config, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx); err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	config, err := newAppConfig()
	if err != nil {
		return err
	}
	creds := credentials{}
	if err := envconfig.Process("stacfetch", &creds); err != nil {
		return fmt.Errorf("envconfig: %w", err)
	}

	client, err := newClient(config, creds)
	if err != nil {
		return err
	}
	ctx = log.With(ctx, "provider", config.Provider)

	filters, err := newFilters(config)
	if err != nil {
		return err
	}

	table := bands.DefaultTable()
	if config.BandsFile != "" {
		if table, err = bands.LoadTable(config.BandsFile); err != nil {
			return err
		}
	}

	dlConfig := downloader.Config{
		Workers:      config.Workers,
		Retries:      config.Retries,
		DestDir:      config.DestDir,
		Overwrite:    config.Overwrite,
		RequestPayer: config.RequestPayer,
	}
	if config.PreferS3 || config.RequestPayer {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("aws config: %w", err)
		}
		dlConfig.S3 = manager.NewDownloader(s3.NewFromConfig(awsCfg))
	}
	if config.Resume {
		seed, err := common.LoadReport(config.ReportPath)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		dlConfig.Seed = seed
		log.Logger(ctx).Info("resuming previous run", zap.String("run_id", seed.RunID))
	}

	status := &downloader.StatusObserver{}
	dlConfig.Observer = downloader.MultiObserver{downloader.NewLogObserver(ctx), status}
	if config.MonitoringAddr != "" {
		go serveMonitoring(ctx, config.MonitoringAddr, status, config.ReportPath)
	}

	dl := downloader.New(client, table, dlConfig)
	it := catalog.NewIterator(client, filters, config.Limit)

	report, dlErr := dl.Download(ctx, it, strings.Split(config.Bands, ","))
	if err := report.Save(config.ReportPath); err != nil {
		return err
	}
	log.Logger(ctx).Info(report.Summary(), zap.String("report", config.ReportPath))
	if dlErr != nil {
		return dlErr
	}
	if !report.FullySucceeded() {
		return fmt.Errorf("run %s", report.Summary())
	}
	return nil
}

func newClient(config *config, creds credentials) (ifcatalog.Client, error) {
	switch config.Provider {
	case "planetary":
		return planetary.NewClient(planetary.Config{
			APIURL:          config.APIURL,
			SubscriptionKey: creds.SubscriptionKey,
		}), nil
	case "earthsearch":
		return earthsearch.NewClient(earthsearch.Config{
			APIURL:   config.APIURL,
			PreferS3: config.PreferS3,
		}), nil
	case "generic":
		if config.APIURL == "" {
			return nil, fmt.Errorf("missing api-url config flag (required with provider=generic)")
		}
		headers := http.Header{}
		if creds.APIToken != "" {
			headers.Set("Authorization", "Bearer "+creds.APIToken)
		}
		return generic.NewClient(generic.Config{APIURL: config.APIURL, Headers: headers}), nil
	}
	return nil, fmt.Errorf("unknown provider %q (expecting planetary, earthsearch or generic)", config.Provider)
}

func newFilters(config *config) (ifcatalog.SearchFilters, error) {
	filters := ifcatalog.SearchFilters{PageSize: config.PageSize}
	if config.Collections != "" {
		filters.Collections = strings.Split(config.Collections, ",")
	}
	if config.BBox != "" {
		parts := strings.Split(config.BBox, ",")
		if len(parts) != 4 {
			return filters, fmt.Errorf("malformed bbox %q (expecting west,south,east,north)", config.BBox)
		}
		for _, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return filters, fmt.Errorf("malformed bbox %q: %w", config.BBox, err)
			}
			filters.BBox = append(filters.BBox, v)
		}
	}
	if config.AOIFile != "" {
		b, err := os.ReadFile(config.AOIFile)
		if err != nil {
			return filters, fmt.Errorf("aoi: %w", err)
		}
		if filters.Intersects, err = service.UnmarshalGeometry(b); err != nil {
			return filters, fmt.Errorf("aoi %s: %w", config.AOIFile, err)
		}
	}
	var err error
	if config.StartDate != "" {
		if filters.StartTime, err = dateparse.ParseAny(config.StartDate); err != nil {
			return filters, fmt.Errorf("malformed start-date %q: %w", config.StartDate, err)
		}
	}
	if config.EndDate != "" {
		if filters.EndTime, err = dateparse.ParseAny(config.EndDate); err != nil {
			return filters, fmt.Errorf("malformed end-date %q: %w", config.EndDate, err)
		}
	}
	if config.CloudCover >= 0 {
		filters.Query = map[string]interface{}{"eo:cloud_cover": map[string]interface{}{"lte": config.CloudCover}}
	}
	return filters, nil
}

func serveMonitoring(ctx context.Context, addr string, status *downloader.StatusObserver, reportPath string) {
	r := mux.NewRouter()
	r.HandleFunc("/progress", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status.Snapshot())
	}).Methods("GET")
	r.HandleFunc("/report", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, reportPath)
	}).Methods("GET")

	srv := http.Server{
		Addr:         addr,
		Handler:      handlers.CompressHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Logger(ctx).Warn("monitoring endpoint", zap.Error(err))
	}
}
