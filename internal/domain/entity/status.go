package entity

// StatusKind is the wire value the tracking service expects for each stage.
type StatusKind string

const (
	StatusStarted   StatusKind = "processing"
	StatusProcessed StatusKind = "processed"
	StatusError     StatusKind = "error"
)

// ConversionStatus is a progress update for one (user, file) pair.
type ConversionStatus struct {
	Kind       StatusKind `json:"status"`
	UserID     string     `json:"userId"`
	FileID     string     `json:"fileId"`
	ArchiveKey string     `json:"compressedFileKey,omitempty"`
}

func Started(userID, fileID string) ConversionStatus {
	return ConversionStatus{Kind: StatusStarted, UserID: userID, FileID: fileID}
}

func Processed(userID, fileID, archiveKey string) ConversionStatus {
	return ConversionStatus{Kind: StatusProcessed, UserID: userID, FileID: fileID, ArchiveKey: archiveKey}
}

func Failed(userID, fileID string) ConversionStatus {
	return ConversionStatus{Kind: StatusError, UserID: userID, FileID: fileID}
}
