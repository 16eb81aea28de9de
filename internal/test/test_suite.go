// Command-line stress test that simulates concurrent note create / summarize /
// delete operations against the API and produces CSV + HTML reports.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"smartnote/config"

	"github.com/go-redis/redis/v8"
)

const baseURL = "http://127.0.0.1:8080/api/v1"

var client = &http.Client{Timeout: 30 * time.Second}

// noteResult 汇总每个 worker 的笔记生命周期结果，方便折叠到报告内。
type noteResult struct {
	Worker     int
	NoteID     uint64
	Stage      string // "create" / "summarize" / "delete" / "done"
	StatusCode int
	ErrMessage string
	Timestamp  time.Time
}

// ======================= 基本 HTTP helper =======================

// doJSON serializes a JSON body and sends a request with optional headers.
func doJSON(method, url string, body any, headers map[string]string) (int, []byte, error) {
	var buf []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = b
	}
	req, _ := http.NewRequest(method, url, bytes.NewBuffer(buf))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, nil
}

// ======================= 账号 / 笔记 Helpers =======================

// registerUser ensures the test account exists (idempotent).
func registerUser(mobile, username, password string) error {
	body := map[string]string{"mobile": mobile, "username": username, "password": password}
	status, _, err := doJSON(http.MethodPost, baseURL+"/users/register", body, nil)
	if err != nil {
		return err
	}
	if status != 200 && status != 400 { // 400 表示已存在（可接受）
		return fmt.Errorf("register status %d", status)
	}
	return nil
}

// loginUser logs in and returns the access token.
func loginUser(username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	status, data, err := doJSON(http.MethodPost, baseURL+"/users/login", body, map[string]string{"X-Device": "stress"})
	if err != nil {
		return "", err
	}
	if status != 200 {
		return "", fmt.Errorf("login status %d body=%s", status, string(data))
	}
	var res map[string]string
	if err := json.Unmarshal(data, &res); err != nil {
		return "", err
	}
	return res["access_token"], nil
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// createNote posts a note and returns its id.
func createNote(token, title, content string) (uint64, int, error) {
	body := map[string]string{"title": title, "content": content}
	status, data, err := doJSON(http.MethodPost, baseURL+"/notes", body, authHeaders(token))
	if err != nil || status != 200 {
		return 0, status, err
	}
	var res struct {
		Note struct {
			ID uint64 `json:"id"`
		} `json:"note"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return 0, status, err
	}
	return res.Note.ID, status, nil
}

// summarizeNote requests a summary for the note; 409 是并发拒绝，算预期内。
func summarizeNote(token string, noteID uint64) (int, error) {
	status, _, err := doJSON(http.MethodPost, fmt.Sprintf("%s/notes/%d/summarize", baseURL, noteID), nil, authHeaders(token))
	return status, err
}

// deleteNote removes the note.
func deleteNote(token string, noteID uint64) (int, error) {
	status, _, err := doJSON(http.MethodDelete, fmt.Sprintf("%s/notes/%d", baseURL, noteID), nil, authHeaders(token))
	return status, err
}

// ======================= 基础功能连通性测试 =======================

// endpointSmokeTests exercises the note endpoints with positive and negative cases.
func endpointSmokeTests(token string) error {
	// 全空笔记应被拒绝
	status, _, err := doJSON(http.MethodPost, baseURL+"/notes", map[string]string{"title": " ", "content": ""}, authHeaders(token))
	if err != nil || status != http.StatusBadRequest {
		return fmt.Errorf("empty note expected 400, got %d err=%v", status, err)
	}

	// 正常创建
	noteID, status, err := createNote(token, "smoke", "hello stress world")
	if err != nil || status != http.StatusOK {
		return fmt.Errorf("create note failed: status=%d err=%v", status, err)
	}

	// 空正文笔记的摘要请求应被拒绝
	emptyID, status, err := createNote(token, "empty body", "")
	if err != nil || status != http.StatusOK {
		return fmt.Errorf("create title-only note failed: status=%d err=%v", status, err)
	}
	if status, err := summarizeNote(token, emptyID); err != nil || status != http.StatusBadRequest {
		return fmt.Errorf("summarize empty content expected 400, got %d err=%v", status, err)
	}

	// 删除后再删应 404
	if status, err := deleteNote(token, noteID); err != nil || status != http.StatusOK {
		return fmt.Errorf("delete failed: status=%d err=%v", status, err)
	}
	if status, err := deleteNote(token, noteID); err != nil || status != http.StatusNotFound {
		return fmt.Errorf("double delete expected 404, got %d err=%v", status, err)
	}
	_, _ = deleteNote(token, emptyID)

	log.Println("endpoint smoke tests passed: create/summarize-guard/delete basic scenarios verified")
	return nil
}

// ======================= 并发测试与报告生成 =======================

// concurrentNoteTest orchestrates the whole test run (create -> summarize -> delete -> report).
func concurrentNoteTest(token string, noteCount, maxConcurrent int, withSummaries bool, outCSV, outHTML string) error {
	jobs := make(chan int, noteCount)
	resCh := make(chan noteResult, noteCount*3)

	var wg sync.WaitGroup
	worker := func(workerID int) {
		defer wg.Done()
		for i := range jobs {
			title := fmt.Sprintf("stress-%d-%d", workerID, i)
			noteID, status, err := createNote(token, title, "Concurrent note body for stress run. Budget, roadmap, follow-ups.")
			res := noteResult{Worker: workerID, NoteID: noteID, Stage: "create", StatusCode: status, Timestamp: time.Now()}
			if err != nil {
				res.ErrMessage = err.Error()
				resCh <- res
				continue
			}
			resCh <- res

			if withSummaries {
				status, err = summarizeNote(token, noteID)
				res = noteResult{Worker: workerID, NoteID: noteID, Stage: "summarize", StatusCode: status, Timestamp: time.Now()}
				if err != nil {
					res.ErrMessage = err.Error()
				}
				resCh <- res
			}

			status, err = deleteNote(token, noteID)
			res = noteResult{Worker: workerID, NoteID: noteID, Stage: "delete", StatusCode: status, Timestamp: time.Now()}
			if err != nil {
				res.ErrMessage = err.Error()
			}
			resCh <- res
		}
	}

	workers := maxConcurrent
	if workers < 1 {
		workers = 10
	}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker(i)
	}
	for i := 0; i < noteCount; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(resCh)

	// 写 CSV 报告
	csvFile, err := os.Create(outCSV)
	if err != nil {
		return err
	}
	defer csvFile.Close()
	csvWriter := csv.NewWriter(csvFile)
	defer csvWriter.Flush()
	_ = csvWriter.Write([]string{"Worker", "NoteID", "Stage", "StatusCode", "ErrMessage", "Timestamp"})

	var allResults []noteResult
	for r := range resCh {
		_ = csvWriter.Write([]string{
			fmt.Sprintf("%d", r.Worker),
			fmt.Sprintf("%d", r.NoteID),
			r.Stage,
			fmt.Sprintf("%d", r.StatusCode),
			r.ErrMessage,
			r.Timestamp.Format(time.RFC3339),
		})
		allResults = append(allResults, r)
	}
	csvWriter.Flush()

	// 生成简单 HTML 报告
	if err := writeHTMLReport(outHTML, allResults); err != nil {
		log.Printf("write HTML report error: %v", err)
	}
	return nil
}

// writeHTMLReport renders a basic table so failures are easy to eyeball.
func writeHTMLReport(path string, results []noteResult) error {
	const tpl = `
<!doctype html>
<html>
<head><meta charset="utf-8"><title>Note Stress Report</title>
<style>
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; text-align:left }
th { background: #f4f4f4; }
.success { color: green; }
.fail { color: red; }
</style>
</head>
<body>
<h2>Note Stress Report ({{ .GeneratedAt }})</h2>
<table>
<thead><tr><th>Worker</th><th>NoteID</th><th>Stage</th><th>StatusCode</th><th>Error</th><th>Timestamp</th></tr></thead>
<tbody>
{{ range .Rows }}
<tr>
<td>{{ .Worker }}</td>
<td>{{ .NoteID }}</td>
<td>{{ .Stage }}</td>
<td>{{ .StatusCode }}</td>
<td>{{ .ErrMessage }}</td>
<td>{{ .Timestamp }}</td>
</tr>
{{ end }}
</tbody>
</table>
</body>
</html>`

	data := struct {
		GeneratedAt string
		Rows        []noteResult
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Rows:        results,
	}

	t, err := template.New("report").Parse(tpl)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.Execute(f, data)
}

// ======================= main =======================

func main() {
	rdb := initRedis()

	username := fmt.Sprintf("stress-%d", time.Now().UnixNano()%1000000)
	password := "StressPwd123!"
	mobile := fmt.Sprintf("13%09d", time.Now().UnixNano()%1000000000)
	noteCount := 50    // 总笔记数
	maxConcurrent := 5 // 最大并发 worker 数
	// 摘要阶段会真实调用上游 LLM，默认关闭；需要时设置 STRESS_WITH_SUMMARIES=1
	withSummaries := os.Getenv("STRESS_WITH_SUMMARIES") == "1"
	outCSV := "note_stress_report.csv"
	outHTML := "note_stress_report.html"

	if err := registerUser(mobile, username, password); err != nil {
		log.Fatalf("register failed: %v", err)
	}
	token, err := loginUser(username, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	if err := endpointSmokeTests(token); err != nil {
		log.Fatalf("endpoint smoke tests failed: %v", err)
	}

	start := time.Now()
	if err := concurrentNoteTest(token, noteCount, maxConcurrent, withSummaries, outCSV, outHTML); err != nil {
		log.Fatalf("concurrent test failed: %v", err)
	}
	elapsed := time.Since(start)
	log.Printf("concurrent test finished in %s, CSV=%s HTML=%s\n", elapsed.String(), outCSV, outHTML)

	// 打印 Redis 状态（残留的生成中标记应为空）
	keys, _ := rdb.Keys(rdb.Context(), "sn:*").Result()
	log.Printf("Redis keys after test: %v\n", keys)
	fmt.Println("All note stress tests completed successfully!")
}

// 初始化 Redis 并清理测试数据
func initRedis() *redis.Client {
	config.InitConfig("../../")
	config.InitRedis()
	rdb := config.RedisClient
	rdb.FlushDB(rdb.Context())
	fmt.Println("Redis cleared for testing")
	return rdb
}
