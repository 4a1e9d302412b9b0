// Seeds demo hosts, security accounts and a handful of visits so the
// dashboards have something to show during development.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/rvvm-project/campusgate/internal/config"
	"github.com/rvvm-project/campusgate/internal/database"
	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/rvvm-project/campusgate/internal/store"
	"github.com/rvvm-project/campusgate/internal/utils"
	"github.com/rvvm-project/campusgate/internal/workflow"
)

func main() {
	fmt.Println("Campus visitor management demo seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	err = db.AutoMigrate(
		&models.User{},
		&models.Visit{},
		&models.VisitorRequest{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	st := store.NewGorm(db)
	engine := workflow.New(st)
	ctx := context.Background()

	var visitCount int64
	if visitCount, err = st.CountVisits(ctx); err != nil {
		log.Fatalf("Failed to inspect database: %v", err)
	}
	if visitCount > 0 {
		fmt.Printf("Database already has %d visits. Aborting; nothing was modified.\n", visitCount)
		return
	}

	hosts := []models.User{
		{Email: "john.smith@rvce.edu.in", Name: "Dr. John Smith", Role: models.RoleHost, Department: "Computer Science", ContactNumber: "+91-80-67178002"},
		{Email: "sarah.johnson@rvce.edu.in", Name: "Prof. Sarah Johnson", Role: models.RoleHost, Department: "Electronics", ContactNumber: "+91-80-67178003"},
		{Email: "raj.patel@rvce.edu.in", Name: "Dr. Raj Patel", Role: models.RoleHost, Department: "Mechanical", ContactNumber: "+91-80-67178004"},
	}
	security := []models.User{
		{Email: "maingate@rvce.edu.in", Name: "Main Gate Desk", Role: models.RoleSecurity, Department: "Security"},
	}

	password, err := utils.HashPassword("changeme123")
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	for i := range hosts {
		hosts[i].Password = password
		if err := st.SaveUser(ctx, &hosts[i]); err != nil {
			log.Fatalf("Failed to seed host %s: %v", hosts[i].Email, err)
		}
	}
	for i := range security {
		security[i].Password = password
		if err := st.SaveUser(ctx, &security[i]); err != nil {
			log.Fatalf("Failed to seed security user %s: %v", security[i].Email, err)
		}
	}
	fmt.Printf("Seeded %d hosts and %d security accounts (password: changeme123)\n", len(hosts), len(security))

	visits := []models.Visit{
		{
			Name:            "Asha Rao",
			ContactNumber:   "9876543210",
			Department:      "Computer Science",
			WhomToMeet:      "Dr. John Smith",
			WhomToMeetEmail: "john.smith@rvce.edu.in",
			PurposeOfVisit:  "Project discussion",
		},
		{
			Name:             "Vikram Iyer",
			ContactNumber:    "9812345678",
			Department:       "Electronics",
			WhomToMeet:       "Prof. Sarah Johnson",
			WhomToMeetEmail:  "sarah.johnson@rvce.edu.in",
			PurposeOfVisit:   "Guest lecture",
			NumberOfVisitors: 2,
		},
	}
	for i := range visits {
		if _, err := engine.Register(ctx, &visits[i]); err != nil {
			log.Fatalf("Failed to seed visit for %s: %v", visits[i].Name, err)
		}
	}
	fmt.Printf("Seeded %d pending visits\n", len(visits))
}
