package api

import (
	"os"

	"github.com/ssdfair/ssdsim/pkg/config"
	"github.com/ssdfair/ssdsim/pkg/models"
)

func requestFor(uid int, arrival, finish float64, size uint32) models.Request {
	return models.Request{UserID: uid, Op: models.OpRead, Arrival: arrival, Finish: finish, SizeBytes: size}
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

func defaultTestOptions() config.Options {
	opts := config.Defaults()
	opts.Scheduler = "rr"
	return opts
}
