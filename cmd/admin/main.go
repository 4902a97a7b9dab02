package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/feed"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
)

const operatorID = "cli-operator"

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  setup-admin        create or repair the admin account")
	fmt.Println("  list-deleted       show complaints in the recycle bin")
	fmt.Println("  restore <id>       take a complaint out of the recycle bin")
	fmt.Println("  purge <id>         permanently delete a complaint")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	os.Exit(run(os.Args[1], os.Args[2:]))
}

// run executes one command and returns the process exit code. Storage is
// closed before the process exits.
func run(command string, args []string) int {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("ERROR: Invalid configuration: %v", err)
		return 1
	}

	ctx := context.Background()
	s, err := storage.Connect(ctx, cfg)
	if err != nil {
		log.Printf("ERROR: failed to connect storage: %v", err)
		return 1
	}
	defer s.Close()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	identity := auth.NewIdentityService(s, tokens, nil, auth.AdminAccount{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})

	// Events go through Redis so running servers see CLI changes on the feed.
	var sinks []complaint.EventSink
	if s.Redis != nil {
		sinks = append(sinks, feed.NewHub(s.Redis))
	}
	complaints := complaint.NewService(s, identity.Gate, s.Locker(), sinks...)

	opCtx, err := operatorContext(ctx, tokens)
	if err != nil {
		log.Printf("ERROR: failed to authorize operator: %v", err)
		return 1
	}

	switch command {
	case "setup-admin":
		created, err := identity.SetupAdmin(ctx)
		if err != nil {
			log.Printf("ERROR: setting up admin: %v", err)
			return 1
		}
		if created {
			fmt.Printf("Admin account %s created.\n", cfg.AdminUsername)
		} else {
			fmt.Printf("Admin account %s updated.\n", cfg.AdminUsername)
		}
	case "list-deleted":
		list, err := complaints.ListDeleted(opCtx)
		if err != nil {
			log.Printf("ERROR: listing deleted complaints: %v", err)
			return 1
		}
		printComplaints(list)
	case "restore":
		id, ok := requireID("restore", args)
		if !ok {
			return 1
		}
		_, restored, err := complaints.Restore(opCtx, id)
		if err != nil {
			log.Printf("ERROR: restoring complaint: %v", err)
			return 1
		}
		if restored {
			fmt.Printf("Complaint %s has been restored.\n", id)
		} else {
			fmt.Printf("Complaint %s is not in the recycle bin.\n", id)
		}
	case "purge":
		id, ok := requireID("purge", args)
		if !ok {
			return 1
		}
		if err := complaints.Purge(opCtx, id); err != nil {
			log.Printf("ERROR: purging complaint: %v", err)
			return 1
		}
		fmt.Printf("Complaint %s has been permanently deleted.\n", id)
	default:
		fmt.Println("Unknown command")
		usage()
		return 1
	}
	return 0
}

// operatorContext authorizes the CLI as an administrator. Anyone able to
// run it already holds JWT_SECRET.
func operatorContext(ctx context.Context, tokens *auth.TokenIssuer) (context.Context, error) {
	token, err := tokens.Issue(operatorID, models.RoleAdmin, time.Minute)
	if err != nil {
		return nil, err
	}
	return auth.WithAuthorization(ctx, "Bearer "+token), nil
}

func requireID(command string, args []string) (string, bool) {
	if len(args) != 1 {
		fmt.Printf("Usage: admin %s <complaint_id>\n", command)
		return "", false
	}
	return args[0], true
}

func printComplaints(list []models.Complaint) {
	if len(list) == 0 {
		fmt.Println("The recycle bin is empty.")
		return
	}
	for _, c := range list {
		fmt.Printf("%s  %-8s  %-12s  %s  %s\n", c.TrackingID, c.Status, c.Category, c.CreatedAt.Format(time.DateTime), c.Title)
	}
}
