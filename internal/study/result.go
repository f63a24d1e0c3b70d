// internal/study/result.go
package study

// Result is the outcome code every lobby operation reports to the front end.
// Infrastructure faults travel separately as error returns; a Result is only
// meaningful when the accompanying error is nil.
type Result int

const (
	Success Result = iota
	LobbyExists
	PasswordNotEntered
	InsufficientPrivileges
	UserHasNoFreeSlots
	UserAlreadyExistsInLobby
	UserNotInLobby
	InvalidLobby
	InvalidPassword
	ChronoAlreadyRunning
	ChronoAlreadyNotRunning
	// UnwantedBehavior marks an internal inconsistency that should be
	// unreachable, e.g. a private lobby with no stored credential digest.
	// Callers log it loudly; it is a defect signal, not a normal outcome.
	UnwantedBehavior
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case LobbyExists:
		return "lobby_exists"
	case PasswordNotEntered:
		return "password_not_entered"
	case InsufficientPrivileges:
		return "insufficient_privileges"
	case UserHasNoFreeSlots:
		return "user_has_no_free_slots"
	case UserAlreadyExistsInLobby:
		return "user_already_exists_in_lobby"
	case UserNotInLobby:
		return "user_not_in_lobby"
	case InvalidLobby:
		return "invalid_lobby"
	case InvalidPassword:
		return "invalid_password"
	case ChronoAlreadyRunning:
		return "chrono_already_running"
	case ChronoAlreadyNotRunning:
		return "chrono_already_not_running"
	case UnwantedBehavior:
		return "unwanted_behavior"
	}
	return "unknown"
}
