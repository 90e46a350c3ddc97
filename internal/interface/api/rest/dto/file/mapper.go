package file

import (
	domain "file-sharing-api/internal/domain/file"
)

func ToResponseFile(fDomain domain.Record) File {
	var f = File{
		ID:        fDomain.UUID,
		Name:      fDomain.Name,
		Size:      fDomain.SizeBytes,
		Type:      fDomain.MimeType,
		Path:      fDomain.StoragePath,
		CreatedAt: fDomain.CreatedAt,
	}

	return f
}

func ToResponseFiles(fDomain domain.Records) Files {
	fs := make(Files, len(fDomain))
	for idx, f := range fDomain {
		fs[idx] = ToResponseFile(*f)
	}

	return fs
}
