package auth

// Mechanism names an authentication mechanism understood by the server.
type Mechanism string

const (
	MechanismNonce       Mechanism = "MONGODB-CR"
	MechanismScramSHA1   Mechanism = "SCRAM-SHA-1"
	MechanismScramSHA256 Mechanism = "SCRAM-SHA-256"
	MechanismX509        Mechanism = "MONGODB-X509"

	// AdminDatabase is the privileged database that server management commands run on.
	AdminDatabase = "admin"

	DefaultHost = "localhost"
	DefaultPort = 27017

	// ErrorCodeLoginFailed is reported for every failed handshake, whatever the cause.
	ErrorCodeLoginFailed = -3
	ErrorMsgLoginFailed  = "couldn't log in"

	// CredentialDigestLength is the length of a hex encoded MD5 digest.
	CredentialDigestLength = 32
)

// Command and response field names.
const (
	CmdGetNonce      = "getnonce"
	CmdAuthenticate  = "authenticate"
	CmdLogout        = "logout"
	CmdListDatabases = "listDatabases"
	CmdShutdown      = "shutdown"
	CmdOpLogging     = "opLogging"
	CmdTraceAll      = "traceAll"
	CmdQueryTrace    = "queryTraceLevel"
	CmdSaslStart     = "saslStart"
	CmdSaslContinue  = "saslContinue"

	FieldOK             = "ok"
	FieldUser           = "user"
	FieldNonce          = "nonce"
	FieldKey            = "key"
	FieldMechanism      = "mechanism"
	FieldPayload        = "payload"
	FieldConversationID = "conversationId"
	FieldDone           = "done"
	FieldDatabases      = "databases"
	FieldErrmsg         = "errmsg"
	FieldCode           = "code"
)
