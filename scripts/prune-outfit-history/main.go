// prune-outfit-history removes old outfit history entries for a user.
//
// Entries older than -older-than days are deleted. Favorited entries are
// kept unless -include-favorites is set. Usage counters are not touched.
//
// Usage: go run ./scripts/prune-outfit-history [flags] <user-id>
//
// Database connection: Uses standard PG* environment variables
//
// Flags:
//
//	-dry-run            Show what would be deleted without actually deleting (default: true)
//	-older-than         Age in days past which entries are removed (default: 90)
//	-include-favorites  Also remove favorited entries (default: false)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func main() {
	dryRun := flag.Bool("dry-run", true, "Show what would be deleted without actually deleting")
	olderThan := flag.Int("older-than", 90, "Age in days past which entries are removed")
	includeFavorites := flag.Bool("include-favorites", false, "Also remove favorited entries")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 || *olderThan <= 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-dry-run=false] [-older-than=90] [-include-favorites] <user-id>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	userID, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user ID: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, buildConnString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	// Set RLS context for user
	if _, err := conn.Exec(ctx, "SELECT set_config('app.current_user_id', $1, false)", userID.String()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set RLS context: %v\n", err)
		os.Exit(1)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -*olderThan)

	if *dryRun {
		fmt.Println("DRY RUN - no changes will be made")
		fmt.Println("Run with -dry-run=false to actually delete entries")
		fmt.Println()
	}

	count, err := pruneHistory(ctx, conn, userID, cutoff, *includeFavorites, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning history: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Printf("\nTotal entries that would be deleted: %d\n", count)
	} else {
		fmt.Printf("\nTotal entries deleted: %d\n", count)
	}
}

// pruneHistory deletes history entries shown before cutoff.
// If dryRun is true, it only lists them.
func pruneHistory(ctx context.Context, conn *pgx.Conn, userID uuid.UUID, cutoff time.Time, includeFavorites, dryRun bool) (int, error) {
	if dryRun {
		rows, err := conn.Query(ctx, `
			SELECT id, item_ids, occasion, outfit_name, shown_at, favorited
			FROM outfit_history
			WHERE user_id = $1
			  AND shown_at < $2
			  AND ($3 OR NOT favorited)
			ORDER BY shown_at
		`, userID, cutoff, includeFavorites)
		if err != nil {
			return 0, fmt.Errorf("query failed: %w", err)
		}
		defer rows.Close()

		var count int
		for rows.Next() {
			var (
				id        uuid.UUID
				itemIDs   []int64
				occasion  string
				name      string
				shownAt   time.Time
				favorited bool
			)
			if err := rows.Scan(&id, &itemIDs, &occasion, &name, &shownAt, &favorited); err != nil {
				return 0, fmt.Errorf("scan failed: %w", err)
			}
			count++
			fmt.Printf("  %s %s %-10s %v %q%s\n", id, shownAt.Format(time.DateOnly), occasion, itemIDs, truncate(name, 40), favoriteMark(favorited))
		}
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("rows iteration failed: %w", err)
		}

		if count == 0 {
			fmt.Printf("  No entries before %s\n", cutoff.Format(time.DateOnly))
		}
		return count, nil
	}

	result, err := conn.Exec(ctx, `
		DELETE FROM outfit_history
		WHERE user_id = $1
		  AND shown_at < $2
		  AND ($3 OR NOT favorited)
	`, userID, cutoff, includeFavorites)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}

	return int(result.RowsAffected()), nil
}

func favoriteMark(favorited bool) string {
	if favorited {
		return " (favorite)"
	}
	return ""
}

func buildConnString() string {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "wardrobe")
	password := os.Getenv("PGPASSWORD")
	dbname := getEnvOrDefault("PGDATABASE", "wardrobe_engine")

	parts := []string{
		"host=" + host,
		"port=" + port,
		"user=" + user,
		"dbname=" + dbname,
		"sslmode=" + getEnvOrDefault("PGSSLMODE", "disable"),
	}
	if password != "" {
		parts = append(parts, "password="+password)
	}
	return strings.Join(parts, " ")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
