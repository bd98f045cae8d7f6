package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"

	_ "github.com/lintang-b-s/pairhmm/docs"
	"github.com/lintang-b-s/pairhmm/pkg/kv"
	"github.com/lintang-b-s/pairhmm/pkg/server/rest"
	"github.com/lintang-b-s/pairhmm/pkg/server/rest/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	listenAddr   = flag.String("listenaddr", ":5000", "server listen address")
	cacheBackend = flag.String("cache", kv.BackendBadger, "in-memory viterbi cache backend: badger or pebble")
	modelNames   = flag.String("models", "", "comma separated models to serve, empty serves every registered model")
	workers      = flag.Int("workers", 8, "number of workers for batch viterbi")
	memprofile   = flag.String("memprofile", "", "write memory profile to this file")
)

//	@title			pairhmm lintangbs API
//	@version		1.0
//	@description	pairwise hidden markov model alignment engine in go. forward, backward and viterbi over two sequences

//	@contact.name	lintang birda saputra

//	@license.name	GNU Affero General Public License v3.0
//	@license.url	https://www.gnu.org/licenses/gpl-3.0.en.html

// @host		localhost:5000
// @BasePath	/api
// @schemes	http
func main() {
	flag.Parse()

	kvDB, err := kv.OpenInMemory(*cacheBackend)
	if err != nil {
		log.Fatal(err)
	}
	defer kvDB.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := rest.NewMetrics(reg)

	cfg := service.DefaultConfig()
	if *modelNames != "" {
		cfg.Models = strings.Split(*modelNames, ",")
	}
	cfg.Workers = *workers
	cfg.Observer = m

	alignmentSvc, err := service.NewAlignmentService(cfg, kvDB)
	if err != nil {
		log.Fatal(err)
	}
	recordMemProfile(memprofile, "service_init")

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:5000/swagger/doc.json"), //The url pointing to API definition
	))

	rest.AlignmentRouter(r, alignmentSvc, m)

	log.Printf("serving models %s with %s viterbi cache", strings.Join(cfg.Models, ","), *cacheBackend)
	fmt.Printf("\nserver started at %s\n", *listenAddr)

	log.Fatal(http.ListenAndServe(*listenAddr, r))
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		*memprofile = strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
