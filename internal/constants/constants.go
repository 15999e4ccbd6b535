package constants

// Centralized constants for env keys, external APIs, routes and events.
const (
	// Environment variable keys
	EnvMistralAPIKey       = "MISTRAL_API_KEY"
	EnvImgBBAPIKey         = "IMGBB_API_KEY"
	EnvSessionSecret       = "SESSION_SECRET"
	EnvSessionSecureCookie = "SESSION_SECURE_COOKIE"
	EnvConfigPath          = "PUGILISTS_CONFIG"
	EnvDBPath              = "PUGILISTS_DB"
	EnvLogLevel            = "LOG_LEVEL"

	// HTTP headers and content types
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	ContentTypeJSON = "application/json"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// Mistral API endpoints and base URL
	MistralBaseURL             = "https://api.mistral.ai"
	MistralChatCompletionsPath = "/v1/chat/completions"

	// Mistral model names used per call type
	MistralEngineModel      = "mistral-large-latest"
	MistralSuggestModel     = "mistral-medium-latest"
	MistralFingerprintModel = "pixtral-large-2411"

	// ImgBB upload endpoint
	ImgBBUploadURL = "https://api.imgbb.com/1/upload"

	// Session / Cookie names
	CookieSessionName = "pp_session"
)

// Routes used by the backend router
const (
	RouteAPIPrefix          = "/api"
	RouteHealth             = "/health"
	RouteVersion            = "/version"
	RouteSession            = "/session"
	RouteCharacters         = "/characters"
	RouteCharacterByID      = "/characters/:characterID"
	RouteUpload             = "/upload"
	RouteSuggestCharacter   = "/suggest/character"
	RouteSuggestEnvironment = "/suggest/environment"
	RouteEnhanceCharacter   = "/suggest/enhance-character"
	RouteEnhanceEnvironment = "/suggest/enhance-environment"
	RouteWebsocket          = "/ws"
)

// Realtime channel events, client -> server
const (
	EventRoomCreate     = "room:create"
	EventRoomJoin       = "room:join"
	EventRoomRejoin     = "room:rejoin"
	EventCharSelect     = "character:select"
	EventPlayerReady    = "player:ready"
	EventBattleAction   = "battle:action"
	EventBattleGenerate = "battle:generate_action"
	EventBattleForfeit  = "battle:forfeit"
)

// Realtime channel events, server -> client
const (
	EventRoomCreated        = "room:created"
	EventRoomPlayerJoined   = "room:player_joined"
	EventRoomFull           = "room:full"
	EventRoomPlayerDropped  = "room:player_disconnected"
	EventRoomPlayerRejoined = "room:player_rejoined"
	EventRoomError          = "room:error"
	EventCharSelected       = "character:selected"
	EventBattleStart        = "battle:start"
	EventActionReceived     = "battle:action_received"
	EventBattleResolving    = "battle:resolving"
	EventRoundComplete      = "battle:round_complete"
	EventBattleEnd          = "battle:end"
	EventActionGenerated    = "battle:action_generated"
	EventActionChoices      = "battle:action_choices"
	EventNarratorAudio      = "battle:narrator_audio"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
)

// Common error messages used across API and socket handlers
const (
	ErrInvalidRequest       = "Invalid request"
	ErrRoomNotFound         = "Room not found"
	ErrRoomFull             = "Room is full"
	ErrCharacterNotFound    = "Character not found"
	ErrCharacterRequired    = "Select a character before readying up"
	ErrNotInRoom            = "You are not a player in this room"
	ErrNoActiveBattle       = "No battle in progress"
	ErrBattleAlreadyOver    = "The battle is already decided"
	ErrActionsLocked        = "Actions are locked; resolving current round"
	ErrFailedCreateChar     = "Failed to create character"
	ErrFailedUpdateChar     = "Failed to update character"
	ErrFailedDeleteChar     = "Failed to delete character"
	ErrFailedFetchChars     = "Failed to fetch characters"
	ErrFailedUpload         = "Failed to upload image"
	ErrFailedSuggest        = "Failed to generate suggestion"
	ErrAuthRequired         = "Authentication required"
	ErrInvalidSession       = "Invalid session"
	ErrFailedCreateSession  = "Failed to create session"
	ErrUploadMissingImage   = "Multipart field 'image' is required"
	ErrUnknownPlayerForRoom = "Unknown player for this room"
)

// Logging field names
const (
	LogFieldRoomID     = "room_id"
	LogFieldBattleID   = "battle_id"
	LogFieldPlayerID   = "player_id"
	LogFieldConnID     = "connection_id"
	LogFieldCharID     = "character_id"
	LogFieldSlot       = "slot"
	LogFieldRound      = "round"
	LogFieldEvent      = "event"
	LogFieldAddr       = "addr"
	LogFieldSource     = "source"
	LogFieldName       = "name"
	LogFieldModel      = "model"
	LogFieldStatusCode = "status_code"
)
