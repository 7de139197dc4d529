package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"codeclive/internal/config"
	"codeclive/internal/logging"
	"codeclive/internal/model"
	"codeclive/internal/repository"
	"codeclive/internal/service"
)

func main() {
	roomID := flag.String("room", "demo-room", "room id to seed")
	mentor := flag.String("mentor", "mentor1", "mentor username")
	learners := flag.Int("learners", 2, "number of learner tokens to print")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.Log.Level, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(ctx)

	repo := repository.NewLiveRoomRepo(client.Database(cfg.Mongo.Database))

	mentorID := &model.Identity{UserID: "mentor_" + *mentor, Username: *mentor, FirstName: "Demo", LastName: "Mentor", Role: model.RoleMentor}
	sess := model.NewRoomSession(*roomID, mentorID.MentorIdentity())
	sess.LanguageUsed = "python"
	sess.Code = "def solve(n):\n    return n * 2\n"
	sess.TestCase = json.RawMessage(`[{"input":"2","output":"4"},{"input":"5","output":"10"}]`)

	if _, err := repo.Create(ctx, model.NewLiveRoomRecord(sess, []string{})); err != nil {
		log.Fatal().Err(err).Msg("failed to insert live room")
	}
	log.Info().Str("room", *roomID).Str("mentor", *mentor).Msg("seeded live room")

	auth := service.NewAuthService(cfg.Auth.JWTSecret)
	printToken(auth, mentorID, *ttl)
	for i := 1; i <= *learners; i++ {
		learner := &model.Identity{Username: fmt.Sprintf("learner%d", i), Role: model.RoleLearner}
		printToken(auth, learner, *ttl)
	}
}

func printToken(auth *service.AuthService, identity *model.Identity, ttl time.Duration) {
	token, err := auth.IssueToken(identity, ttl)
	if err != nil {
		log.Error().Err(err).Str("user", identity.Username).Msg("failed to sign token")
		os.Exit(1)
	}
	fmt.Printf("%-8s %-12s %s\n", identity.Role, identity.Username, token)
}
