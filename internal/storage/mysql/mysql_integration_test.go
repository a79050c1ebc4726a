//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"hoteldesk/internal/app"
	"hoteldesk/internal/domain"
	mysqlstore "hoteldesk/internal/storage/mysql"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("migrations dir %s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hoteldesk",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "hoteldesk")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestComposer_MySQL_RoundTrip(t *testing.T) {
	db := startMySQL(t)

	store := mysqlstore.New(db)
	composer := app.NewComposer(store, nil)
	queries := app.NewQueryService(store, nil, 0)
	ctx := context.Background()

	// create: parent + two singleton sub-resources in one composition
	out, err := composer.Create(ctx, app.Hotels, map[string]any{
		"name":                   "Grand Istanbul",
		"stars":                  "4",
		"contact_name":           "Ana",
		"contact_email":          "ana@example.com",
		"billing_address_street": "Main St 1",
		"billing_address_vat":    "TR123",
		"parking_available":      true,
		"parking_spaces":         40,
	})
	if err != nil {
		t.Fatalf("create hotel: %v", err)
	}
	hotel := out["hotel"].(domain.Row)
	hotelID := hotel["id"].(int64)
	if hotel["stars"] != int64(4) {
		t.Fatalf("stars not coerced: %+v", hotel)
	}
	if _, present := out["distances"]; present {
		t.Fatalf("distances written without distance fields")
	}

	// partial update must not clobber the untouched billing column
	out, err = composer.Update(ctx, app.Hotels, hotelID, map[string]any{
		"billing_address_vat": "TR999",
	})
	if err != nil {
		t.Fatalf("update hotel: %v", err)
	}
	billing := out["billing"].(domain.Row)
	if billing["billing_address_vat"] != "TR999" || billing["billing_address_street"] != "Main St 1" {
		t.Fatalf("partial update broke prior fields: %+v", billing)
	}

	var billingRows int
	if err := db.QueryRow("SELECT COUNT(*) FROM hotel_billing WHERE hotel_id = ?", hotelID).Scan(&billingRows); err != nil {
		t.Fatalf("count billing: %v", err)
	}
	if billingRows != 1 {
		t.Fatalf("billing rows = %d, want 1", billingRows)
	}

	// room under the hotel, with one flat category in the create payload
	out, err = composer.Create(ctx, app.Rooms, map[string]any{
		"hotel_id":      hotelID,
		"name":          "Main wing",
		"category_name": "Deluxe",
		"amenities":     `["wifi","tv"]`,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	roomID := out["room"].(domain.Row)["id"].(int64)
	cats := out["categories"].([]domain.Row)
	if len(cats) != 1 || cats[0]["category_name"] != "Deluxe" {
		t.Fatalf("flat category not appended: %+v", out)
	}

	// batch append preserves order and is atomic
	rows, err := composer.AppendChildren(ctx, app.Rooms, app.RoomCategories, roomID, []map[string]any{
		{"category_name": "Standard", "num_rooms": 40},
		{"category_name": "Suite", "base_price": "420,00"},
	})
	if err != nil {
		t.Fatalf("append categories: %v", err)
	}
	if len(rows) != 2 || rows[0]["category_name"] != "Standard" || rows[1]["category_name"] != "Suite" {
		t.Fatalf("unexpected appended rows: %+v", rows)
	}

	_, err = composer.AppendChildren(ctx, app.Rooms, app.RoomCategories, roomID, []map[string]any{
		{"category_name": "OK"},
		{"pms_name": "no discriminator"},
	})
	if domain.KindOf(err) != domain.KindMissingDiscriminator {
		t.Fatalf("kind = %q, want missing_discriminator", domain.KindOf(err))
	}
	var catCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM room_categories WHERE room_id = ?", roomID).Scan(&catCount); err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if catCount != 3 {
		t.Fatalf("categories = %d, want 3 (rejected batch wrote nothing)", catCount)
	}

	// composed read model mirrors what was written
	view, err := queries.GetComposed(ctx, app.Rooms, roomID)
	if err != nil {
		t.Fatalf("get composed room: %v", err)
	}
	viewCats := view["categories"].([]domain.Row)
	if len(viewCats) != 3 {
		t.Fatalf("composed view categories = %d, want 3", len(viewCats))
	}
	if _, ok := viewCats[0]["amenities"].([]any); !ok {
		t.Fatalf("amenities not decoded in view: %+v", viewCats[0])
	}

	// append to a parent that does not exist writes nothing
	_, err = composer.AppendChildren(ctx, app.Rooms, app.RoomCategories, 999999, []map[string]any{
		{"category_name": "ghost"},
	})
	if domain.KindOf(err) != domain.KindParentNotFound {
		t.Fatalf("kind = %q, want parent_not_found", domain.KindOf(err))
	}
}
