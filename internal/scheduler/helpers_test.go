package scheduler

import "github.com/ssdfair/ssdsim/pkg/models"

func req(uid int, size uint32) models.Request {
	return models.Request{UserID: uid, SizeBytes: size}
}
