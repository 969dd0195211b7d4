package scaffold

// usersCSV seeds the "users" adapter's source file.
const usersCSV = `user_id,name,email
1,Alice Nguyen,alice@example.com
2,Bryan Kim,bryan@example.com
3,Carla Ortiz,carla@example.com
4,Dmitri Volkov,dmitri@example.com
5,Elena Petrova,elena@example.com
6,Farhan Ali,farhan@example.com
7,Grace Chen,grace@example.com
8,Hugo Martins,hugo@example.com
9,Ines Dubois,ines@example.com
10,Jonas Weber,jonas@example.com
`

// appLog1JSON, appLog2JSON and appLog3JSON seed the "app_logs" adapter's
// glob source. Each line is a standalone JSON object, newline-delimited,
// matching the shape the staging_app_logs model expects.
const appLog1JSON = `{"timestamp": "2024-03-01T08:12:00Z", "user_id": 1, "action": "login", "device": "desktop", "duration": 5}
{"timestamp": "2024-03-01T08:15:00Z", "user_id": 1, "action": "view_product", "device": "desktop", "duration": 42}
{"timestamp": "2024-03-01T09:02:00Z", "user_id": 2, "action": "login", "device": "mobile", "duration": 3}
{"timestamp": "2024-03-01T09:05:00Z", "user_id": 2, "action": "add_to_cart", "device": "mobile", "duration": 18}
{"timestamp": "2024-03-01T10:30:00Z", "user_id": 3, "action": "login", "device": "desktop", "duration": 4}
`

const appLog2JSON = `{"timestamp": "2024-03-02T11:00:00Z", "user_id": 5, "action": "login", "device": "tablet", "duration": 6}
{"timestamp": "2024-03-02T11:10:00Z", "user_id": 5, "action": "checkout", "device": "tablet", "duration": 61}
{"timestamp": "2024-03-02T13:45:00Z", "user_id": 7, "action": "login", "device": "desktop", "duration": 5}
{"timestamp": "2024-03-02T13:50:00Z", "user_id": 7, "action": "view_product", "device": "desktop", "duration": 27}
{"timestamp": "2024-03-02T14:20:00Z", "user_id": 8, "action": "add_to_cart", "device": "mobile", "duration": 15}
`

const appLog3JSON = `{"timestamp": "2024-03-03T07:55:00Z", "user_id": 1, "action": "login", "device": "mobile", "duration": 4}
{"timestamp": "2024-03-03T08:00:00Z", "user_id": 4, "action": "checkout", "device": "desktop", "duration": 73}
{"timestamp": "2024-03-03T09:12:00Z", "user_id": 6, "action": "login", "device": "desktop", "duration": 5}
{"timestamp": "2024-03-03T09:20:00Z", "user_id": 6, "action": "view_product", "device": "desktop", "duration": 33}
{"timestamp": "2024-03-03T10:05:00Z", "user_id": 10, "action": "add_to_cart", "device": "tablet", "duration": 22}
`
