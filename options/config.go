package options

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/tychoish/devserve/util"
	"gopkg.in/yaml.v3"
)

// ReadConfig parses a YAML supervisor config. Relative working
// directories, log files and the env file are resolved against the
// directory holding the config file.
func ReadConfig(path string) (*Supervisor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("problem reading config '%s': %w", path, err)
	}

	conf := &Supervisor{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("problem parsing config '%s': %w", path, err)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	conf.resolvePaths(root)

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", path, err)
	}

	return conf, nil
}

// LoadConfig reads path if it exists. When it does not exist and
// allowMissing is set, it returns DefaultConfig for the directory path
// would have lived in.
func LoadConfig(path string, allowMissing bool) (*Supervisor, error) {
	path = util.ExpandHomedir(path)
	if !allowMissing || util.FileExists(path) {
		return ReadConfig(path)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	conf := DefaultConfig(root)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// DefaultConfig is the two-server layout used when no config file is
// present: a uvicorn API server on 8000 from the project's virtualenv and
// an npm dev server on 3000.
func DefaultConfig(root string) *Supervisor {
	conf := &Supervisor{
		EnvFile: filepath.Join(root, DefaultEnvFile),
		Processes: []Process{
			{
				Name: "api",
				Args: []string{
					VirtualenvPython(root),
					"-m", "uvicorn", "app.main:app",
					"--reload", "--host", "0.0.0.0", "--port", "8000",
				},
				WorkingDirectory: filepath.Join(root, "backend"),
				Port:             8000,
				Settle:           DefaultSettle,
				Groups:           []string{"backend"},
				LogFile:          filepath.Join(root, "backend", DefaultLogFile),
				ClearFiles:       []string{filepath.Join(root, "backend", "debug.log")},
				URLs:             []string{"http://localhost:8000/docs"},
			},
			{
				Name:             "web",
				Command:          "npm run dev",
				WorkingDirectory: filepath.Join(root, "frontend"),
				Port:             3000,
				Groups:           []string{"frontend"},
				LogFile:          filepath.Join(root, "frontend", DefaultLogFile),
				ClearFiles:       []string{filepath.Join(root, "frontend", "debug.log")},
				URLs:             []string{"http://localhost:3000"},
			},
		},
	}
	return conf
}

// VirtualenvPython is the interpreter inside root's "venv" directory.
func VirtualenvPython(root string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(root, "venv", "Scripts", "python.exe")
	}
	return filepath.Join(root, "venv", "bin", "python")
}

// LoadEnvironment merges the env file, when present, beneath the
// explicitly configured environment. A missing env file is not an error.
func (conf *Supervisor) LoadEnvironment() error {
	if conf.Environment == nil {
		conf.Environment = map[string]string{}
	}
	if conf.EnvFile == "" {
		return nil
	}

	vars, err := godotenv.Read(conf.EnvFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("problem reading env file '%s': %w", conf.EnvFile, err)
	}

	for k, v := range vars {
		if _, ok := conf.Environment[k]; !ok {
			conf.Environment[k] = v
		}
	}
	return nil
}

func (conf *Supervisor) resolvePaths(root string) {
	abs := func(p string) string {
		p = util.ExpandHomedir(p)
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}

	if conf.EnvFile == "" {
		conf.EnvFile = DefaultEnvFile
	}
	conf.EnvFile = abs(conf.EnvFile)

	for idx := range conf.Processes {
		proc := &conf.Processes[idx]
		if proc.WorkingDirectory == "" {
			proc.WorkingDirectory = root
		}
		proc.WorkingDirectory = abs(proc.WorkingDirectory)
		proc.LogFile = abs(proc.LogFile)
		for i := range proc.ClearFiles {
			proc.ClearFiles[i] = abs(proc.ClearFiles[i])
		}
	}
}
