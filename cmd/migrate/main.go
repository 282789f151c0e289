package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"paddock.events/internal/auth"
	"paddock.events/internal/migrate"
	"paddock.events/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("PADDOCK_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "ops/migrations/sql", "Path to SQL migrations")
		seedsPath      = flag.String("seeds", "ops/migrations/seeds", "Path to SQL seeds")

		adminEmail    = flag.String("email", "", "Admin email (admin command)")
		adminName     = flag.String("name", "", "Admin display name (admin command)")
		adminPassword = flag.String("password", "", "Admin password (admin command)")
		adminRole     = flag.String("role", string(auth.GlobalSuperAdmin), "Global role (admin command)")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or PADDOCK_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: paddock-migrate [up|down|seed|status|admin]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath, *seedsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "admin":
		err = createAdmin(ctx, db, *adminEmail, *adminName, *adminPassword, *adminRole)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

// createAdmin provisions the first back-office account so there is a way to
// sign in after a fresh deployment.
func createAdmin(ctx context.Context, db *sql.DB, email, name, password, role string) error {
	if email == "" || password == "" {
		return fmt.Errorf("admin requires -email and -password")
	}
	svc, err := auth.NewService(pg.New(db))
	if err != nil {
		return err
	}
	user, err := svc.ProvisionUser(ctx, email, name, password, auth.GlobalRole(role))
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s) with role %s\n", user.Email, user.ID, user.Role)
	return nil
}
