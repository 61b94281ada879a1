package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"

	"github.com/franciscosanchezn/gin-oauth-server/internal/config"
	"github.com/franciscosanchezn/gin-oauth-server/internal/database"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
	"gorm.io/gorm"
)

var devScopes = []models.Scope{
	{Name: "read", Description: "Read your data", Default: true},
	{Name: "write", Description: "Change your data"},
	{Name: "profile", Description: "See your name and email", Default: true, CantDisallow: true},
}

func main() {
	// Parse command line flags
	email := flag.String("email", "dev@example.com", "Member email")
	password := flag.String("password", "dev-password", "Member password")
	name := flag.String("name", "Development Client", "Client display name")
	redirect := flag.String("redirect", "http://localhost:3000/callback", "Client redirect endpoint")
	autoAllow := flag.Bool("auto-allow", true, "Skip the consent page for this client")
	flag.Parse()

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	db, err := database.InitDatabase(conf.Database())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	ctx := context.Background()

	seedScopes(ctx, db)
	member := memberFor(ctx, db, *email, *password)

	clients := services.NewClientService(db)
	client := &models.Client{
		Name:            *name,
		DefaultEndpoint: *redirect,
		AutoAllow:       *autoAllow,
	}
	if err := clients.CreateClient(ctx, client); err != nil {
		log.Fatal("Failed to create client:", err)
	}
	if err := clients.AddRedirectionURL(ctx, client.ID, *redirect); err != nil {
		log.Fatal("Failed to register redirect endpoint:", err)
	}

	fmt.Printf("✓ Development OAuth client created!\n")
	fmt.Printf("Client ID: %s\n", client.Identifier)
	fmt.Printf("Redirect endpoint: %s\n", *redirect)
	fmt.Printf("Member: %s (ID: %d)\n", member.Email, member.ID)
	fmt.Println("\nStart an authorization in the browser:")
	fmt.Printf("http://%s:%d/oauth/authorize?%s\n", conf.Host, conf.Port, url.Values{
		"client_id":     {client.Identifier},
		"response_type": {"code"},
		"redirect_uri":  {*redirect},
		"scope":         {"read profile"},
		"state":         {"dev"},
	}.Encode())
	fmt.Println("\nThen exchange the code:")
	fmt.Printf("curl -X POST http://%s:%d/oauth/token \\\n", conf.Host, conf.Port)
	fmt.Printf("  -d 'grant_type=authorization_code' \\\n")
	fmt.Printf("  -d 'code=<code>' \\\n")
	fmt.Printf("  --data-urlencode 'redirect_uri=%s'\n", *redirect)
}

// seedScopes creates the development scope catalog where missing
func seedScopes(ctx context.Context, db *gorm.DB) {
	scopes := services.NewScopeService(db)
	for _, scope := range devScopes {
		existing, err := scopes.GetScopesByNames(ctx, []string{scope.Name})
		if err != nil {
			log.Fatal("Failed to look up scopes:", err)
		}
		if len(existing) > 0 {
			continue
		}
		if err := scopes.CreateScope(ctx, &scope); err != nil {
			log.Fatal("Failed to create scope:", err)
		}
		fmt.Printf("Created scope: %s\n", scope.Name)
	}
}

// memberFor gets or creates the member the client will act for
func memberFor(ctx context.Context, db *gorm.DB, email, password string) *models.Member {
	members := services.NewMemberService(db)
	member, err := members.GetMemberByEmail(ctx, email)
	if err == nil {
		fmt.Printf("Found existing member: %s (ID: %d)\n", member.Email, member.ID)
		return member
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal("Failed to look up member:", err)
	}

	member = &models.Member{Email: email, Name: "Development Member"}
	if err := member.SetPassword(password); err != nil {
		log.Fatal("Failed to hash password:", err)
	}
	if err := members.CreateMember(ctx, member); err != nil {
		log.Fatal("Failed to create member:", err)
	}
	fmt.Printf("Created new member: %s (ID: %d)\n", member.Email, member.ID)
	return member
}
