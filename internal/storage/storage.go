// Package storage persists per-guild settings: the DJ role, 24/7 mode and a
// short command history.
package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/datastore"
	"github.com/rs/zerolog/log"
)

const commandHistoryLimit int = 20

type Storage struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

type CommandHistoryRecord struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	GuildName   string    `json:"guild_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Param       string    `json:"param"`
	Datetime    time.Time `json:"datetime"`
}

type Record struct {
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
	DJRoleID            string                 `json:"dj_role_id"`
	Always247           bool                   `json:"always_247"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("open datastore %s: %w", filePath, err)
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// getOrCreateGuildRecord loads the guild record. The datastore hands back
// decoded JSON after a reload, so values are normalised through JSON.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	data, exists := s.ds.Get(guildID)
	if !exists {
		newRecord := &Record{CommandsHistoryList: []CommandHistoryRecord{}}
		s.ds.Add(guildID, newRecord)
		return newRecord, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}

	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}
	return &record, nil
}

func (s *Storage) update(guildID string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	fn(record)
	s.ds.Add(guildID, record)
	return nil
}

func (s *Storage) read(guildID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateGuildRecord(guildID)
}

// AppendCommandToHistory appends a command history record for a guild
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	return s.update(guildID, func(r *Record) {
		r.CommandsHistoryList = append(r.CommandsHistoryList, command)
		if over := len(r.CommandsHistoryList) - commandHistoryLimit; over > 0 {
			r.CommandsHistoryList = r.CommandsHistoryList[over:]
		}
	})
}

func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	record, err := s.read(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistoryList, nil
}

// DJRole returns the configured DJ role, empty when none is set.
func (s *Storage) DJRole(guildID string) (string, error) {
	record, err := s.read(guildID)
	if err != nil {
		return "", err
	}
	return record.DJRoleID, nil
}

func (s *Storage) SetDJRole(guildID, roleID string) error {
	return s.update(guildID, func(r *Record) { r.DJRoleID = roleID })
}

func (s *Storage) ClearDJRole(guildID string) error {
	return s.SetDJRole(guildID, "")
}

// Is247 reports whether the guild keeps the bot connected. Read errors count as off.
func (s *Storage) Is247(guildID string) bool {
	record, err := s.read(guildID)
	if err != nil {
		log.Warn().Str("component", "storage").Str("guild", guildID).Err(err).Msg("failed to read 24/7 flag")
		return false
	}
	return record.Always247
}

// Toggle247 flips 24/7 mode and returns the new value.
func (s *Storage) Toggle247(guildID string) (bool, error) {
	var enabled bool
	err := s.update(guildID, func(r *Record) {
		r.Always247 = !r.Always247
		enabled = r.Always247
	})
	return enabled, err
}
