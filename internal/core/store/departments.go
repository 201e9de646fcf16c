package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ncku-csie/gradaudit/internal/types"
)

// DepartmentInfo describes one department entry from departments_info.json.
type DepartmentInfo struct {
	Name    string `json:"name_zh_tw"`
	College string `json:"college"`
}

// Departments maps department codes (the course-code prefix, e.g. "F7") to
// their metadata. Loaded once at startup; the file changes at most once a
// year.
type Departments map[string]DepartmentInfo

// LoadDepartments reads departments_info.json from the data directory.
func LoadDepartments(path string) (Departments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading departments info: %w", err)
	}
	var depts Departments
	if err := json.Unmarshal(data, &depts); err != nil {
		return nil, fmt.Errorf("parsing departments info: %w", err)
	}
	return depts, nil
}

// Get returns one department's metadata.
func (d Departments) Get(code string) (DepartmentInfo, error) {
	info, ok := d[code]
	if !ok {
		return DepartmentInfo{}, fmt.Errorf("department %q: %w", code, types.ErrDepartmentNotFound)
	}
	return info, nil
}

// ExpandCollege returns every department code in the same college as the
// given department, sorted. Undeclared-major students who pick a specialty
// department may count courses from any department in its college.
func (d Departments) ExpandCollege(code string) ([]string, error) {
	info, ok := d[code]
	if !ok {
		return nil, fmt.Errorf("department %q: %w", code, types.ErrDepartmentNotFound)
	}

	var codes []string
	for deptCode, deptInfo := range d {
		if deptInfo.College == info.College {
			codes = append(codes, deptCode)
		}
	}
	sort.Strings(codes)
	return codes, nil
}
