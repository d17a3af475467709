package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/mlecomte/toitsol/internal/api"
	"github.com/mlecomte/toitsol/internal/geocode"
	"github.com/mlecomte/toitsol/internal/irradiance"
	"github.com/mlecomte/toitsol/internal/narrative"
	"github.com/mlecomte/toitsol/internal/osm"
	"github.com/mlecomte/toitsol/internal/pipeline"
	"github.com/mlecomte/toitsol/internal/roof"
)

// EstimateFlags are shared by serve and eval: everything needed to build
// the evaluation pipeline.
type EstimateFlags struct {
	NominatimURL string        `name:"nominatim-url" env:"TOITSOL_NOMINATIM_URL" default:"https://nominatim.openstreetmap.org" help:"Nominatim base URL."`
	OverpassURL  string        `name:"overpass-url" env:"TOITSOL_OVERPASS_URL" default:"https://overpass-api.de/api/interpreter" help:"Overpass API interpreter URL."`
	PowerURL     string        `name:"power-url" env:"TOITSOL_POWER_URL" default:"https://power.larc.nasa.gov/api/temporal/daily/point" help:"NASA POWER daily point endpoint."`
	HTTPTimeout  time.Duration `name:"http-timeout" env:"TOITSOL_HTTP_TIMEOUT" default:"30s" help:"Timeout for each external API call."`

	SearchRadius float64 `name:"search-radius" env:"TOITSOL_SEARCH_RADIUS" default:"80" help:"Building search radius around the geocoded point, meters."`
	MaxDistance  float64 `name:"max-distance" env:"TOITSOL_MAX_DISTANCE" default:"50" help:"Reject roofs further than this from the geocoded point, meters."`
	MinRoofArea  float64 `name:"min-roof-area" env:"TOITSOL_MIN_ROOF_AREA" default:"15" help:"Reject roofs smaller than this, square meters."`
	Coverage     string  `name:"coverage" env:"TOITSOL_COVERAGE" enum:"fixed,compactness,density" default:"compactness" help:"Usable-fraction policy."`

	EstimateFloors  bool    `name:"estimate-floors" env:"TOITSOL_ESTIMATE_FLOORS" help:"Double the roof area for likely multi-story houses (experimental)."`
	FloorThreshold  int     `name:"floor-threshold" env:"TOITSOL_FLOOR_THRESHOLD" default:"30" help:"Neighbor count below which the floor heuristic triggers."`
	FloorMultiplier float64 `name:"floor-multiplier" env:"TOITSOL_FLOOR_MULTIPLIER" default:"2.0" help:"Area multiplier applied by the floor heuristic."`

	ElectricityPrice float64 `name:"electricity-price" env:"TOITSOL_ELECTRICITY_PRICE" default:"0.20" help:"Residential electricity price, EUR/kWh."`
	CostPerKWp       float64 `name:"cost-per-kwp" env:"TOITSOL_COST_PER_KWP" default:"1600" help:"Installed cost, EUR/kWp."`
}

// Evaluator assembles the production pipeline from the flags.
func (f *EstimateFlags) Evaluator() *pipeline.Evaluator {
	opts := pipeline.DefaultOptions()
	opts.SearchRadiusM = f.SearchRadius
	opts.MaxDistanceM = f.MaxDistance
	opts.MinRoofAreaM2 = f.MinRoofArea
	opts.Coverage = roof.PolicyByName(f.Coverage)
	if f.EstimateFloors {
		opts.Floors = &roof.FloorPolicy{NeighborThreshold: f.FloorThreshold, Multiplier: f.FloorMultiplier}
	}
	opts.Assumptions.ElectricityPrice = f.ElectricityPrice
	opts.Assumptions.CostPerKWp = f.CostPerKWp

	return pipeline.New(
		geocode.NewClient(f.NominatimURL, f.HTTPTimeout),
		osm.NewClient(f.OverpassURL, f.HTTPTimeout),
		irradiance.NewClient(f.PowerURL, f.HTTPTimeout),
		opts,
	)
}

type ServeCmd struct {
	EstimateFlags
	Port string `name:"port" env:"TOITSOL_PORT" default:"8080" help:"HTTP listen port."`
}

func (c *ServeCmd) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(c.Evaluator(), c.Port)
	return server.Run(ctx)
}

type EvalCmd struct {
	EstimateFlags
	Address string `arg:"" help:"Postal address to evaluate."`
	JSON    bool   `name:"json" help:"Print the full evaluation record as JSON."`
}

func (c *EvalCmd) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ev, err := c.Evaluator().Evaluate(ctx, c.Address)
	if err != nil {
		var uf pipeline.UserFacing
		if errors.As(err, &uf) {
			fmt.Fprintln(os.Stderr, uf.UserMessage())
			os.Exit(1)
		}
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	}
	fmt.Println(narrative.Build(ev))
	return nil
}

var cli struct {
	Serve ServeCmd `cmd:"" default:"1" help:"Run the dashboard and API server."`
	Eval  EvalCmd  `cmd:"" help:"Evaluate one address and print the result."`
}

func main() {
	log.SetFlags(log.LstdFlags)
	ktx := kong.Parse(&cli,
		kong.Name("toitsol"),
		kong.Description("Rooftop solar potential estimator for French addresses."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	if err := ktx.Run(); err != nil {
		log.Fatal(err)
	}
}
