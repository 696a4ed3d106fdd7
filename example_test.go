package pyrox_test

import (
	"context"
	"fmt"
	"log"

	pyrox "github.com/vmatei2/pyrox-client"
	"github.com/vmatei2/pyrox-client/model"
)

// Example demonstrates fetching one race with filters applied.
func Example() {
	ctx := context.Background()

	client, err := pyrox.New(ctx)
	if err != nil {
		log.Fatal(err)
	}

	results, err := client.FetchRace(ctx, 7, "london", model.Filters{
		Gender:   "female",
		Division: "open",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("rows: %d\n", results.Len())
}

// Example_season demonstrates aggregating a whole season with bounded
// concurrency, skipping races that were never published.
func Example_season() {
	ctx := context.Background()

	client, err := pyrox.New(ctx,
		pyrox.WithConcurrency(4),
		pyrox.WithRateLimit(10, 5),
	)
	if err != nil {
		log.Fatal(err)
	}

	season, err := client.FetchSeason(ctx, 7, nil, model.Filters{MaxTotalTime: 90})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("sub-90 results: %d\n", season.Len())
}

// Example_listRaces demonstrates discovering the published races before
// fetching any of them.
func Example_listRaces() {
	ctx := context.Background()

	client, err := pyrox.New(ctx, pyrox.WithAPIOnly())
	if err != nil {
		log.Fatal(err)
	}

	races, err := client.ListRaces(ctx, 0)
	if err != nil {
		log.Fatal(err)
	}

	for _, race := range races {
		fmt.Printf("season %d: %s\n", race.Season, race.Location)
	}
}
