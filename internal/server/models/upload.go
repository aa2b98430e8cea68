package models

// UploadedFile is a file received from a client and written to the staging
// area, waiting to be relocated under its project.
type UploadedFile struct {
	// OriginalName is the file name as sent by the client.
	OriginalName string
	// StagingPath is the absolute path of the staged copy.
	StagingPath string
	// Size is the number of bytes staged.
	Size int64
}
