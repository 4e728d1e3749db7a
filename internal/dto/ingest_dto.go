package dto

// PublishIngestMessage is the payload queued when a session uploads a
// library export. The worker reads the file from FilePath and deletes it
// when done.
type PublishIngestMessage struct {
	SessionId string `json:"session_id"`
	FilePath  string `json:"file_path"`
}
