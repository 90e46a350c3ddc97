package file

import (
	domain "file-sharing-api/internal/domain/file"
)

func fromDBModel(model *File) *domain.Record {
	var f = &domain.Record{
		UUID: model.UUID,

		Name:        model.Name,
		MimeType:    model.MimeType,
		SizeBytes:   model.SizeBytes,
		StoragePath: model.StoragePath,

		CreatedAt: model.CreatedAt,
	}

	return f
}

func fromDBModels(models *Files) domain.Records {
	fs := make(domain.Records, len(*models))
	for idx, f := range *models {
		fs[idx] = fromDBModel(f)
	}

	return fs
}
