package session

import "fmt"

// State is a position in the session lifecycle a portal client moves through.
type State int

const (
	// Anonymous means no token is present.
	Anonymous State = iota
	// PendingVerification means a token was found but has not been verified.
	PendingVerification
	// Authenticated means the token verified successfully.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case PendingVerification:
		return "pending_verification"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Input is a stimulus that can move the session between states.
type Input int

const (
	// LoginSucceeded: credentials accepted, token issued.
	LoginSucceeded Input = iota
	// TokenDetected: a stored token was found on startup.
	TokenDetected
	// TokenVerified: the server confirmed the token.
	TokenVerified
	// TokenRejected: the server rejected the token.
	TokenRejected
	// Logout: this client ended the session.
	Logout
	// RemoteLogout: another tab ended the session.
	RemoteLogout
)

func (i Input) String() string {
	switch i {
	case LoginSucceeded:
		return "login_succeeded"
	case TokenDetected:
		return "token_detected"
	case TokenVerified:
		return "token_verified"
	case TokenRejected:
		return "token_rejected"
	case Logout:
		return "logout"
	case RemoteLogout:
		return "remote_logout"
	default:
		return fmt.Sprintf("Input(%d)", int(i))
	}
}

// Next returns the state that follows the given input. Inputs that do not
// apply in the current state leave it unchanged: the lifecycle is tolerant of
// duplicate or late notifications from other tabs.
func (s State) Next(input Input) State {
	switch input {
	case LoginSucceeded:
		return Authenticated
	case TokenDetected:
		if s == Anonymous {
			return PendingVerification
		}
	case TokenVerified:
		if s == PendingVerification {
			return Authenticated
		}
	case TokenRejected, Logout, RemoteLogout:
		return Anonymous
	}
	return s
}
