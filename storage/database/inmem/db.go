// Package inmemdb provides mutex-guarded in-memory repositories.
// It backs tests and local development without a running Postgres.
package inmemdb

import (
	"sync"

	"github.com/kanisahq/kanisa/core/attendance"
	"github.com/kanisahq/kanisa/core/followup"
	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
	"github.com/kanisahq/kanisa/core/messaging"
	"github.com/kanisahq/kanisa/core/org"
	"github.com/kanisahq/kanisa/core/user"
)

type (
	DB struct {
		org       *orgTable
		user      *userTable
		member    *memberTable
		group     *groupTable
		gathering *gatheringTable
		record    *recordTable
		followUp  *followUpTable
		message   *messageTable
	}

	orgTable struct {
		table map[string]*org.Org
		mutex sync.RWMutex
	}
	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}
	memberTable struct {
		table map[string]*member.Member
		mutex sync.RWMutex
	}
	groupTable struct {
		table   map[string]*group.Group
		members map[string]map[string]bool // group id -> member id set
		mutex   sync.RWMutex
	}
	gatheringTable struct {
		table map[string]*attendance.Gathering
		mutex sync.RWMutex
	}
	recordTable struct {
		table map[string]*attendance.Record
		mutex sync.RWMutex
	}
	followUpTable struct {
		table map[string]*followup.FollowUp
		mutex sync.RWMutex
	}
	messageTable struct {
		table map[string]*messaging.Message
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		org:       &orgTable{table: make(map[string]*org.Org)},
		user:      &userTable{table: make(map[string]*user.User)},
		member:    &memberTable{table: make(map[string]*member.Member)},
		group:     &groupTable{table: make(map[string]*group.Group), members: make(map[string]map[string]bool)},
		gathering: &gatheringTable{table: make(map[string]*attendance.Gathering)},
		record:    &recordTable{table: make(map[string]*attendance.Record)},
		followUp:  &followUpTable{table: make(map[string]*followup.FollowUp)},
		message:   &messageTable{table: make(map[string]*messaging.Message)},
	}
	return db, nil
}
