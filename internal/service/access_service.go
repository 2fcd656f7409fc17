package service

import (
	"consultly/internal/config"

	"github.com/rs/zerolog"
)

// AccessService answers bot-side access questions from config: which
// Telegram accounts get admin commands and which are blocked outright.
// Backend roles are separate and come from the session token.
type AccessService struct {
	logger       *zerolog.Logger
	adminsMap    map[int64]bool
	blacklistMap map[int64]bool
}

func NewAccessService(cfg *config.Config, logger *zerolog.Logger) *AccessService {
	adminsMap := make(map[int64]bool)
	for _, id := range cfg.Admins {
		adminsMap[id] = true
	}

	blacklistMap := make(map[int64]bool)
	for _, id := range cfg.Blacklist {
		blacklistMap[id] = true
	}

	return &AccessService{
		logger:       logger,
		adminsMap:    adminsMap,
		blacklistMap: blacklistMap,
	}
}

func (s *AccessService) IsAdmin(telegramID int64) bool {
	return s.adminsMap[telegramID]
}

func (s *AccessService) IsBlacklisted(telegramID int64) bool {
	return s.blacklistMap[telegramID]
}
