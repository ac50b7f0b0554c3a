package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/solver"
)

func main() {
	cmd := &cli.Command{
		Name:  "selfplay",
		Usage: "play the solver against itself and check that every game is a draw",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "games", Value: 10, Usage: "number of games to play"},
			&cli.BoolFlag{Name: "verbose", Usage: "print the board after every move"},
			&cli.StringFlag{Name: "redis-addr", Usage: "share solved positions through redis at this address"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var opts []solver.Option

	if addr := cmd.String("redis-addr"); addr != "" {
		client, err := storage.New(ctx, addr)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}
		defer client.Close()

		opts = append(opts, solver.WithStore(repository.NewSolutionRepository(client, 0)))
	}

	search := solver.New(logger, opts...)

	result, err := play(ctx, os.Stdout, search, int(cmd.Int("games")), cmd.Bool("verbose"))
	if err != nil {
		return err
	}

	stats := search.Stats()
	fmt.Fprintf(os.Stdout, "games: %d, draws: %d, x wins: %d, o wins: %d\n",
		result.Games, result.Draws, result.XWins, result.OWins)
	fmt.Fprintf(os.Stdout, "cache hits: %d, misses: %d, searches: %d\n", stats.Hits, stats.Misses, stats.Searches)

	if result.Draws != result.Games {
		return cli.Exit("optimal play must always draw", 2)
	}

	return nil
}
