package services

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/calltrackhq/calltrack-backend/internal/config"
	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/calltrackhq/calltrack-backend/internal/search"
	"github.com/nyaruka/phonenumbers"
	"github.com/shopspring/decimal"
)

// SeedService generates demo users and call history between them so a
// fresh installation has something to show. Generated credentials are
// appended to a plain-text file for manual logins.
type SeedService struct {
	users  *UserService
	phones *PhoneService
	calls  *CallService
	cfg    *config.Config
}

func NewSeedService(users *UserService, phones *PhoneService, calls *CallService, cfg *config.Config) *SeedService {
	return &SeedService{users: users, phones: phones, calls: calls, cfg: cfg}
}

var seedPricePerMinute = decimal.NewFromFloat(0.10)

// byMobileOperators are the prefixes used for generated numbers.
var byMobileOperators = []string{"29", "33", "44", "25"}

// Run creates up to cfg.SeedUserCount demo users and calls between every
// pair of active users' primary numbers. Individual failures are logged and
// skipped so one collision does not abort the whole seed.
func (s *SeedService) Run() error {
	file, err := os.OpenFile(s.cfg.CredentialsFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open credentials file: %w", err)
	}
	defer file.Close()

	usedUsernames := map[string]bool{}
	usedPhones := map[string]bool{}

	for i := 1; i <= s.cfg.SeedUserCount; i++ {
		username := uniqueUsername(usedUsernames)
		phone := uniquePhone(usedPhones)
		password := fmt.Sprintf("TempPass%d!", i)

		req := &dto.RegisterRequest{
			Username:   username,
			Password:   password,
			FirstName:  gofakeit.FirstName(),
			LastName:   gofakeit.LastName(),
			MiddleName: gofakeit.LastName(),
			Phone:      phone,
		}

		user, err := s.users.Register(req)
		if err != nil {
			slog.Error("failed to register demo user", "username", username, "error", err)
			continue
		}

		// Roughly a third of demo users expose contact info.
		if rand.Intn(10) < 3 {
			info := "Email: " + gofakeit.Email()
			_ = s.users.UpdateProfile(user, &dto.UpdateProfileRequest{PublicContactInfo: &info})
		}

		if _, err := fmt.Fprintf(file, "%s : %s\n", username, password); err != nil {
			return fmt.Errorf("failed to record credentials: %w", err)
		}
	}

	return s.generateCalls()
}

// generateCalls creates 1-2 calls for every ordered pair of active users
// with primary numbers, spread over the past hour.
func (s *SeedService) generateCalls() error {
	users, _, err := s.users.ListActive(search.NewPageRequest(0, 100))
	if err != nil {
		return err
	}

	for i := range users {
		for j := range users {
			if i == j {
				continue
			}

			callerPhone, err := s.phones.PrimaryForUser(&users[i])
			if err != nil {
				continue
			}
			calleePhone, err := s.phones.PrimaryForUser(&users[j])
			if err != nil {
				continue
			}

			for k := 0; k < 1+rand.Intn(2); k++ {
				callType := models.CallOutgoing
				if rand.Intn(2) == 0 {
					callType = models.CallIncoming
				}
				duration := int64(60 + rand.Intn(300))
				callTime := time.Now().Add(-time.Duration(rand.Intn(3600)) * time.Second)

				if _, err := s.calls.CreateCall(callerPhone, calleePhone, callType, duration, seedPricePerMinute, callTime); err != nil {
					slog.Error("failed to create demo call",
						"caller", users[i].Username, "callee", users[j].Username, "error", err)
				}
			}
		}
	}
	return nil
}

func uniqueUsername(used map[string]bool) string {
	for {
		name := sanitizeUsername(gofakeit.Username())
		if len(name) >= 3 && !used[name] {
			used[name] = true
			return name
		}
	}
}

func sanitizeUsername(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	if sb.Len() > 50 {
		return sb.String()[:50]
	}
	return sb.String()
}

// uniquePhone generates a Belarusian mobile number that libphonenumber
// accepts as valid and callable.
func uniquePhone(used map[string]bool) string {
	var fallback string
	for attempt := 0; attempt < 20; attempt++ {
		operator := byMobileOperators[rand.Intn(len(byMobileOperators))]
		subscriber := 1000000 + rand.Intn(9000000)
		candidate := fmt.Sprintf("+375%s%07d", operator, subscriber)
		if used[candidate] {
			continue
		}
		fallback = candidate

		parsed, err := phonenumbers.Parse(candidate, "")
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		switch phonenumbers.GetNumberType(parsed) {
		case phonenumbers.MOBILE, phonenumbers.FIXED_LINE, phonenumbers.FIXED_LINE_OR_MOBILE, phonenumbers.VOIP:
			used[candidate] = true
			return candidate
		}
	}
	used[fallback] = true
	return fallback
}
