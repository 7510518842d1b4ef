// Command seed fills a local store with the users and chats normally owned by the CRM.
//
//	seed -db ./data -users 1:alice,2:bob,3:carol
//	seed -db ./data -chat 1 -name ops -group -participants 1,2,3
//	seed -db ./data -delete-chat 1
package main

import (
	"crm-realtime/domain"
	"crm-realtime/internal"
	"crm-realtime/repositories"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dbPath := flag.String("db", "./data", "Path to badger DB")
	users := flag.String("users", "", "Comma separated id:username pairs")
	chatID := flag.Int64("chat", 0, "Chat id to create")
	name := flag.String("name", "", "Chat name")
	group := flag.Bool("group", false, "Mark the chat as a group chat")
	participants := flag.String("participants", "", "Comma separated user ids of the chat")
	deleteChat := flag.Int64("delete-chat", 0, "Chat id to delete with its participants and messages")
	logLevel := flag.String("log", "INFO", "Log level")
	flag.Parse()

	log := logs.GetLoggerFromString(*logLevel)
	db, err := internal.OpenStore(*dbPath, false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if *users != "" {
		parsed, err := parseUsers(*users)
		if err != nil {
			return err
		}
		repo := repositories.NewUserRepository(db)
		for _, u := range parsed {
			if err := repo.CreateUser(u); err != nil {
				return fmt.Errorf("create user %d: %w", u.ID, err)
			}
		}
		log.Info("Users seeded", "count", len(parsed))
	}

	chats := repositories.NewChatRepository(db, log)
	if *chatID != 0 {
		ids, err := parseIDs(*participants)
		if err != nil {
			return err
		}
		chat := domain.Chat{ID: *chatID, Name: *name, IsGroup: *group}
		if err := chats.CreateChat(chat, ids); err != nil {
			return fmt.Errorf("create chat %d: %w", chat.ID, err)
		}
		log.Info("Chat seeded", "chat_id", chat.ID, "participants", ids)
	}

	if *deleteChat != 0 {
		if err := chats.DeleteChat(*deleteChat); err != nil {
			return err
		}
		log.Info("Chat deleted", "chat_id", *deleteChat)
	}
	return nil
}

func parseUsers(s string) ([]domain.User, error) {
	var users []domain.User
	for _, pair := range splitList(s) {
		id, username, ok := strings.Cut(pair, ":")
		if !ok || username == "" {
			return nil, fmt.Errorf("invalid user %q, expected id:username", pair)
		}
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", id, err)
		}
		users = append(users, domain.User{ID: n, Username: username})
	}
	return users, nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(s) {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, n)
	}
	return ids, nil
}

func splitList(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Compact(parts)
}
